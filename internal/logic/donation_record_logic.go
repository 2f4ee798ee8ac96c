package logic

import (
	"errors"
	"fmt"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/model"
	"gorm.io/gorm"
)

// DonationRecordLogic 捐款记录业务逻辑
type DonationRecordLogic struct {
	db *gorm.DB
}

// NewDonationRecordLogic 创建捐款记录业务逻辑
func NewDonationRecordLogic(db *gorm.DB) *DonationRecordLogic {
	return &DonationRecordLogic{db: db}
}

// CreateDonationRecord 创建捐款记录。seq 唯一索引保证同一事件
// 重复投递时只落一条记录。
func (l *DonationRecordLogic) CreateDonationRecord(record *model.DonationRecordModel) error {
	if err := l.validateRecord(record); err != nil {
		return err
	}

	if err := l.db.Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("创建捐款记录失败: %w", err)
	}
	return nil
}

// HasDonated 判断捐款人是否已对活动捐过款
func (l *DonationRecordLogic) HasDonated(uid, donor string) (bool, error) {
	var count int64
	err := l.db.Model(&model.DonationRecordModel{}).
		Where("uuid = ? AND donor = ?", uid, donor).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByCampaign 获取活动的捐款记录，按时间倒序分页
func (l *DonationRecordLogic) ListByCampaign(uid string, page, pageSize int) ([]model.DonationRecordModel, int64, error) {
	var total int64
	if err := l.db.Model(&model.DonationRecordModel{}).Where("uuid = ?", uid).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []model.DonationRecordModel
	offset := (page - 1) * pageSize
	if err := l.db.Where("uuid = ?", uid).
		Offset(offset).
		Limit(pageSize).
		Order("seq DESC").
		Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// GetCampaignStats 获取单个活动的捐款统计
func (l *DonationRecordLogic) GetCampaignStats(uid string) (map[string]interface{}, error) {
	var stats struct {
		DonationCount int64  `json:"donation_count"`
		TotalAmount   string `json:"total_amount"`
		UniqueDonors  int64  `json:"unique_donors"`
	}

	if err := l.db.Model(&model.DonationRecordModel{}).Where("uuid = ?", uid).Count(&stats.DonationCount).Error; err != nil {
		return nil, fmt.Errorf("获取捐款笔数失败: %w", err)
	}

	if err := l.db.Model(&model.DonationRecordModel{}).Where("uuid = ?", uid).
		Select("COALESCE(SUM(amount::numeric), 0)::text").
		Scan(&stats.TotalAmount).Error; err != nil {
		return nil, fmt.Errorf("获取捐款总额失败: %w", err)
	}

	if err := l.db.Model(&model.DonationRecordModel{}).Where("uuid = ?", uid).
		Select("COUNT(DISTINCT donor)").
		Scan(&stats.UniqueDonors).Error; err != nil {
		return nil, fmt.Errorf("获取捐款人数失败: %w", err)
	}

	return map[string]interface{}{
		"donation_count": stats.DonationCount,
		"total_amount":   stats.TotalAmount,
		"unique_donors":  stats.UniqueDonors,
	}, nil
}

// validateRecord 验证捐款记录
func (l *DonationRecordLogic) validateRecord(record *model.DonationRecordModel) error {
	if record.Uuid == "" {
		return errors.New("活动标识符不能为空")
	}
	if record.Donor == "" {
		return errors.New("捐款人地址不能为空")
	}
	if record.Amount == "" {
		return errors.New("捐款金额不能为空")
	}
	return nil
}
