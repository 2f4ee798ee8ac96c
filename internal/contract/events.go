package contract

import (
	"github.com/ethereum/go-ethereum/common"
)

// EventType 事件类型
type EventType string

const (
	EventCampaignCreated   EventType = "CampaignCreated"
	EventCampaignEdited    EventType = "CampaignEdited"
	EventDonationReceived  EventType = "DonationReceived"
	EventCampaignFinalized EventType = "CampaignFinalized"
	EventRefundIssued      EventType = "RefundIssued"
)

// Event 活动状态机对外发布的事件。每个成功提交的写操作恰好发布一条事件，
// 后端和前端通过订阅事件刷新缓存，而不是轮询状态。
type Event struct {
	Type       EventType   `json:"type"`
	Key        common.Hash `json:"key"`
	ExternalID string      `json:"external_id"`
	Seq        uint64      `json:"seq"`       // 全局操作序号
	Timestamp  int64       `json:"timestamp"` // 操作提交时间（unix秒）
	Payload    interface{} `json:"payload"`
}

// CreatedPayload CampaignCreated 事件数据
type CreatedPayload struct {
	Creator     common.Address `json:"creator"`
	Beneficiary common.Address `json:"beneficiary"`
	Title       string         `json:"title"`
	GoalAmount  string         `json:"goal_amount"` // wei，十进制字符串
	Deadline    int64          `json:"deadline"`
}

// EditedPayload CampaignEdited 事件数据
type EditedPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DonationPayload DonationReceived 事件数据
type DonationPayload struct {
	Donor  common.Address `json:"donor"`
	Amount string         `json:"amount"`
}

// FinalizedPayload CampaignFinalized 事件数据
type FinalizedPayload struct {
	Caller      common.Address `json:"caller"`
	TotalRaised string         `json:"total_raised"`
	Success     bool           `json:"success"`
}

// RefundPayload RefundIssued 事件数据
type RefundPayload struct {
	Donor  common.Address `json:"donor"`
	Amount string         `json:"amount"`
}

// EventSink 事件接收器。Publish 在状态机持锁期间调用，实现方必须立即返回，
// 不得阻塞或回调状态机写操作。
type EventSink interface {
	Publish(event Event)
}

// nopSink 默认空实现
type nopSink struct{}

func (nopSink) Publish(Event) {}
