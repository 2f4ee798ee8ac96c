package model

import (
	"time"
)

// CampaignMetaModel 活动链下元数据。uuid 为外部标识符，活动上链时
// 用它推导key完成关联；链上状态（募集金额、终结标志）由事件管道
// 同步到这里，只作展示投影，不参与状态机任何校验。
type CampaignMetaModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联信息
	Uuid        string `json:"uuid" gorm:"uniqueIndex;not null"` // 外部标识符
	CampaignKey string `json:"campaign_key" gorm:"index"`        // 链上key（hex），上链后回填

	// 基本信息
	Title               string `json:"title" gorm:"not null" binding:"required"`
	Description         string `json:"description" gorm:"type:text"`
	DetailedDescription string `json:"detailed_description" gorm:"type:text"`
	ImageURL            string `json:"image_url"`
	GalleryImages       string `json:"gallery_images" gorm:"type:text"` // JSON数组
	Category            string `json:"category"`
	Location            string `json:"location"`
	WebsiteURL          string `json:"website_url"`
	AISummary           string `json:"ai_summary" gorm:"type:text"` // 外部AI服务生成，本服务只存储

	// 众筹信息（wei，十进制字符串）
	GoalAmount    string `json:"goal_amount" gorm:"not null"`
	CurrentAmount string `json:"current_amount" gorm:"default:'0'"`

	// 参与方
	CreatorAddress     string `json:"creator_address" gorm:"index;not null"`
	BeneficiaryAddress string `json:"beneficiary_address" gorm:"not null"`

	// 时间信息
	Deadline int64 `json:"deadline"` // unix秒

	// 状态
	Status CampaignStatus `json:"status" gorm:"default:'pending'"`

	// 统计
	DonorCount    int64 `json:"donor_count" gorm:"default:0"`
	DonationCount int64 `json:"donation_count" gorm:"default:0"`
}

// CampaignStatus 活动状态投影
type CampaignStatus string

const (
	CampaignStatusPending CampaignStatus = "pending" // 已建档，未上链
	CampaignStatusActive  CampaignStatus = "active"  // 进行中
	CampaignStatusSuccess CampaignStatus = "success" // 终结，达标
	CampaignStatusFailed  CampaignStatus = "failed"  // 终结，未达标，可退款
)

// TableName 自定义表名
func (CampaignMetaModel) TableName() string {
	return "campaign_meta"
}
