package logic

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CampaignMetaLogic 活动元数据业务逻辑
type CampaignMetaLogic struct {
	db *gorm.DB
}

// NewCampaignMetaLogic 创建活动元数据业务逻辑
func NewCampaignMetaLogic(db *gorm.DB) *CampaignMetaLogic {
	return &CampaignMetaLogic{db: db}
}

// CreateMeta 创建元数据记录。未提供 uuid 时生成一个，
// 返回的 uuid 即上链时使用的外部标识符。
func (l *CampaignMetaLogic) CreateMeta(meta *model.CampaignMetaModel) error {
	if err := l.validateMeta(meta); err != nil {
		return err
	}

	if meta.Uuid == "" {
		meta.Uuid = uuid.NewString()
	}
	meta.Status = model.CampaignStatusPending
	meta.CurrentAmount = "0"

	if err := l.db.Create(meta).Error; err != nil {
		return fmt.Errorf("创建活动元数据失败: %w", err)
	}
	return nil
}

// LinkChainKey 关联链上key。元数据记录可能先于链上活动存在，
// 关联是幂等的：已关联到相同key时直接返回，不视为错误。
func (l *CampaignMetaLogic) LinkChainKey(uid, campaignKey string) error {
	var meta model.CampaignMetaModel
	if err := l.db.Where("uuid = ?", uid).First(&meta).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("活动元数据不存在")
		}
		return err
	}

	if meta.CampaignKey == campaignKey {
		return nil
	}
	if meta.CampaignKey != "" {
		return errors.New("活动已关联其他链上key")
	}

	updates := map[string]interface{}{
		"campaign_key": campaignKey,
		"status":       model.CampaignStatusActive,
	}
	if err := l.db.Model(&meta).Updates(updates).Error; err != nil {
		return fmt.Errorf("关联链上key失败: %w", err)
	}
	return nil
}

// GetByUuid 按外部标识符获取元数据
func (l *CampaignMetaLogic) GetByUuid(uid string) (*model.CampaignMetaModel, error) {
	var meta model.CampaignMetaModel
	if err := l.db.Where("uuid = ?", uid).First(&meta).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("活动元数据不存在")
		}
		return nil, fmt.Errorf("获取活动元数据失败: %w", err)
	}
	return &meta, nil
}

// ListMetas 获取活动列表，支持按状态、分类、创建者过滤
func (l *CampaignMetaLogic) ListMetas(status, category, creator string, page, pageSize int) ([]model.CampaignMetaModel, int64, error) {
	query := l.db.Model(&model.CampaignMetaModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if creator != "" {
		query = query.Where("creator_address = ?", creator)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var metas []model.CampaignMetaModel
	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).
		Order("created_at DESC").
		Find(&metas).Error; err != nil {
		return nil, 0, err
	}

	return metas, total, nil
}

// UpdateMeta 更新元数据的可编辑字段
func (l *CampaignMetaLogic) UpdateMeta(uid string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return errors.New("没有要更新的字段")
	}

	result := l.db.Model(&model.CampaignMetaModel{}).Where("uuid = ?", uid).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("更新活动元数据失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("活动元数据不存在")
	}
	return nil
}

// ApplyDonation 把一笔捐款累加到投影。firstDonation 表示这是该捐款人
// 对该活动的首笔捐款，用于维护捐款人数。
func (l *CampaignMetaLogic) ApplyDonation(uid, amount string, firstDonation bool) error {
	var meta model.CampaignMetaModel
	if err := l.db.Where("uuid = ?", uid).First(&meta).Error; err != nil {
		return err
	}

	current, ok := new(big.Int).SetString(meta.CurrentAmount, 10)
	if !ok {
		current = new(big.Int)
	}
	add, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return fmt.Errorf("非法的捐款金额: %s", amount)
	}
	current.Add(current, add)

	updates := map[string]interface{}{
		"current_amount": current.String(),
		"donation_count": gorm.Expr("donation_count + 1"),
	}
	if firstDonation {
		updates["donor_count"] = gorm.Expr("donor_count + 1")
	}
	return l.db.Model(&meta).Updates(updates).Error
}

// ApplyFinalized 把终结结果写入投影
func (l *CampaignMetaLogic) ApplyFinalized(uid string, success bool) error {
	status := model.CampaignStatusFailed
	if success {
		status = model.CampaignStatusSuccess
	}
	return l.db.Model(&model.CampaignMetaModel{}).
		Where("uuid = ?", uid).
		Update("status", status).Error
}

// GetPlatformStats 平台整体统计
func (l *CampaignMetaLogic) GetPlatformStats() (map[string]interface{}, error) {
	var total, active, success, failed int64
	l.db.Model(&model.CampaignMetaModel{}).Count(&total)
	l.db.Model(&model.CampaignMetaModel{}).Where("status = ?", model.CampaignStatusActive).Count(&active)
	l.db.Model(&model.CampaignMetaModel{}).Where("status = ?", model.CampaignStatusSuccess).Count(&success)
	l.db.Model(&model.CampaignMetaModel{}).Where("status = ?", model.CampaignStatusFailed).Count(&failed)

	var totalRaised string
	if err := l.db.Model(&model.CampaignMetaModel{}).
		Select("COALESCE(SUM(current_amount::numeric), 0)::text").
		Scan(&totalRaised).Error; err != nil {
		return nil, fmt.Errorf("统计募集总额失败: %w", err)
	}

	var totalDonors int64
	l.db.Model(&model.DonationRecordModel{}).Distinct("donor").Count(&totalDonors)

	return map[string]interface{}{
		"total_campaigns":   total,
		"active_campaigns":  active,
		"success_campaigns": success,
		"failed_campaigns":  failed,
		"total_raised":      totalRaised,
		"total_donors":      totalDonors,
	}, nil
}

// validateMeta 验证元数据
func (l *CampaignMetaLogic) validateMeta(meta *model.CampaignMetaModel) error {
	if meta.Title == "" {
		return errors.New("活动标题不能为空")
	}
	if meta.CreatorAddress == "" {
		return errors.New("创建者地址不能为空")
	}
	if meta.BeneficiaryAddress == "" {
		return errors.New("受益人地址不能为空")
	}
	goal, ok := new(big.Int).SetString(meta.GoalAmount, 10)
	if !ok || goal.Sign() <= 0 {
		return errors.New("目标金额必须大于0")
	}
	return nil
}
