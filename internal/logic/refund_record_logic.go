package logic

import (
	"errors"
	"fmt"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/model"
	"gorm.io/gorm"
)

// RefundRecordLogic 退款记录业务逻辑
type RefundRecordLogic struct {
	db *gorm.DB
}

// NewRefundRecordLogic 创建退款记录业务逻辑
func NewRefundRecordLogic(db *gorm.DB) *RefundRecordLogic {
	return &RefundRecordLogic{db: db}
}

// CreateRefundRecord 创建退款记录，按 seq 幂等
func (l *RefundRecordLogic) CreateRefundRecord(record *model.RefundRecordModel) error {
	if record.Uuid == "" {
		return errors.New("活动标识符不能为空")
	}
	if record.Donor == "" {
		return errors.New("捐款人地址不能为空")
	}

	if err := l.db.Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("创建退款记录失败: %w", err)
	}
	return nil
}

// ListByCampaign 获取活动的退款记录
func (l *RefundRecordLogic) ListByCampaign(uid string, page, pageSize int) ([]model.RefundRecordModel, int64, error) {
	var total int64
	if err := l.db.Model(&model.RefundRecordModel{}).Where("uuid = ?", uid).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []model.RefundRecordModel
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
