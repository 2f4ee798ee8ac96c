package model

import (
	"time"
)

// EventModel 事件流水。状态机发布的每条事件先在这里落库，
// 再由处理器更新业务投影，Processed 标记处理进度。
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Uuid        string `json:"uuid" gorm:"index"`
	CampaignKey string `json:"campaign_key" gorm:"index"`
	EventType   string `json:"event_type" gorm:"not null"`
	Seq         uint64 `json:"seq" gorm:"uniqueIndex;not null"`
	EventTime   int64  `json:"event_time"`
	Data        string `json:"data" gorm:"type:text"` // 事件数据JSON
	Processed   bool   `json:"processed" gorm:"default:false"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
