package model

import (
	"time"
)

// DonationRecordModel 捐款记录，由 DonationReceived 事件写入
type DonationRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Uuid        string `json:"uuid" gorm:"index;not null"` // 活动外部标识符
	CampaignKey string `json:"campaign_key" gorm:"index"`
	Donor       string `json:"donor" gorm:"index;not null"`
	Amount      string `json:"amount" gorm:"not null"` // wei，十进制字符串
	Seq         uint64 `json:"seq" gorm:"uniqueIndex"` // 状态机全局操作序号
	DonatedAt   int64  `json:"donated_at"`             // unix秒
}

// TableName 自定义表名
func (DonationRecordModel) TableName() string {
	return "donation_record"
}
