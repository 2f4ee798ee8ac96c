package logic

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/model"
	"gorm.io/gorm"
)

// EventLogic 事件流水业务逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建事件流水业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// RecordEvent 把状态机事件写入流水表，按 seq 幂等
func (l *EventLogic) RecordEvent(event contract.Event) (*model.EventModel, error) {
	data, err := json.Marshal(event.Payload)
	if err != nil {
		return nil, fmt.Errorf("序列化事件数据失败: %w", err)
	}

	record := &model.EventModel{
		Uuid:        event.ExternalID,
		CampaignKey: event.Key.Hex(),
		EventType:   string(event.Type),
		Seq:         event.Seq,
		EventTime:   event.Timestamp,
		Data:        string(data),
	}

	if err := l.db.Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("写入事件流水失败: %w", err)
	}
	return record, nil
}

// MarkProcessed 标记事件已处理
func (l *EventLogic) MarkProcessed(seq uint64) error {
	return l.db.Model(&model.EventModel{}).
		Where("seq = ?", seq).
		Update("processed", true).Error
}

// LastProcessedSeq 最后一条已处理事件的序号
func (l *EventLogic) LastProcessedSeq() (uint64, error) {
	var record model.EventModel
	err := l.db.Where("processed = ?", true).
		Order("seq DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return record.Seq, nil
}

// ListByCampaign 获取活动的事件流水
func (l *EventLogic) ListByCampaign(uid string, page, pageSize int) ([]model.EventModel, int64, error) {
	var total int64
	if err := l.db.Model(&model.EventModel{}).Where("uuid = ?", uid).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []model.EventModel
	offset := (page - 1) * pageSize
	if err := l.db.Where("uuid = ?", uid).
		Offset(offset).
		Limit(pageSize).
		Order("seq DESC").
		Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}
