package model

import (
	"time"
)

// RefundRecordModel 退款记录，由 RefundIssued 事件写入
type RefundRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Uuid        string `json:"uuid" gorm:"index;not null"`
	CampaignKey string `json:"campaign_key" gorm:"index"`
	Donor       string `json:"donor" gorm:"index;not null"`
	Amount      string `json:"amount" gorm:"not null"`
	Seq         uint64 `json:"seq" gorm:"uniqueIndex"`
	RefundedAt  int64  `json:"refunded_at"`
}

// TableName 自定义表名
func (RefundRecordModel) TableName() string {
	return "refund_record"
}
