package event

import (
	"fmt"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/logger"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/logic"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/model"
)

// CampaignProcessor 活动生命周期事件处理器：创建、编辑、终结
type CampaignProcessor struct {
	metaLogic *logic.CampaignMetaLogic
}

// NewCampaignProcessor 创建活动事件处理器
func NewCampaignProcessor(metaLogic *logic.CampaignMetaLogic) *CampaignProcessor {
	return &CampaignProcessor{metaLogic: metaLogic}
}

// Process 处理活动事件
func (p *CampaignProcessor) Process(event contract.Event) error {
	switch event.Type {
	case contract.EventCampaignCreated:
		// 创建接口已同步完成关联，这里幂等兜底
		if err := p.metaLogic.LinkChainKey(event.ExternalID, event.Key.Hex()); err != nil {
			logger.Warn("Failed to link chain key for %s: %v", event.ExternalID, err)
		}
		return nil

	case contract.EventCampaignEdited:
		payload, ok := event.Payload.(contract.EditedPayload)
		if !ok {
			return fmt.Errorf("unexpected payload type for %s", event.Type)
		}
		return p.metaLogic.UpdateMeta(event.ExternalID, map[string]interface{}{
			"title":       payload.Title,
			"description": payload.Description,
		})

	case contract.EventCampaignFinalized:
		payload, ok := event.Payload.(contract.FinalizedPayload)
		if !ok {
			return fmt.Errorf("unexpected payload type for %s", event.Type)
		}
		return p.metaLogic.ApplyFinalized(event.ExternalID, payload.Success)
	}
	return nil
}

// DonationProcessor 捐款事件处理器
type DonationProcessor struct {
	metaLogic     *logic.CampaignMetaLogic
	donationLogic *logic.DonationRecordLogic
}

// NewDonationProcessor 创建捐款事件处理器
func NewDonationProcessor(metaLogic *logic.CampaignMetaLogic, donationLogic *logic.DonationRecordLogic) *DonationProcessor {
	return &DonationProcessor{
		metaLogic:     metaLogic,
		donationLogic: donationLogic,
	}
}

// Process 处理捐款事件：写捐款记录，累加投影
func (p *DonationProcessor) Process(event contract.Event) error {
	payload, ok := event.Payload.(contract.DonationPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s", event.Type)
	}

	donor := payload.Donor.Hex()

	// 在写入本笔记录前判断是否首捐，维护捐款人数
	donated, err := p.donationLogic.HasDonated(event.ExternalID, donor)
	if err != nil {
		return err
	}

	record := &model.DonationRecordModel{
		Uuid:        event.ExternalID,
		CampaignKey: event.Key.Hex(),
		Donor:       donor,
		Amount:      payload.Amount,
		Seq:         event.Seq,
		DonatedAt:   event.Timestamp,
	}
	if err := p.donationLogic.CreateDonationRecord(record); err != nil {
		return err
	}

	return p.metaLogic.ApplyDonation(event.ExternalID, payload.Amount, !donated)
}

// RefundProcessor 退款事件处理器
type RefundProcessor struct {
	refundLogic *logic.RefundRecordLogic
}

// NewRefundProcessor 创建退款事件处理器
func NewRefundProcessor(refundLogic *logic.RefundRecordLogic) *RefundProcessor {
	return &RefundProcessor{refundLogic: refundLogic}
}

// Process 处理退款事件
func (p *RefundProcessor) Process(event contract.Event) error {
	payload, ok := event.Payload.(contract.RefundPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s", event.Type)
	}

	record := &model.RefundRecordModel{
		Uuid:        event.ExternalID,
		CampaignKey: event.Key.Hex(),
		Donor:       payload.Donor.Hex(),
		Amount:      payload.Amount,
		Seq:         event.Seq,
		RefundedAt:  event.Timestamp,
	}
	return p.refundLogic.CreateRefundRecord(record)
}
