package task

import (
	"time"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/config"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/logger"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/logic"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// MetaSyncJob 投影对账任务。事件管道偶发丢失（队列满、进程重启）时，
// 元数据投影可能落后于状态机，这里定期用状态机的权威状态覆盖投影。
type MetaSyncJob struct {
	db        *gorm.DB
	factory   *contract.CampaignFactory
	metaLogic *logic.CampaignMetaLogic
	config    *config.Config
}

// NewMetaSyncJob 创建投影对账任务
func NewMetaSyncJob(db *gorm.DB, factory *contract.CampaignFactory, cfg *config.Config) *MetaSyncJob {
	return &MetaSyncJob{
		db:        db,
		factory:   factory,
		metaLogic: logic.NewCampaignMetaLogic(db),
		config:    cfg,
	}
}

// GetName 获取任务名称
func (j *MetaSyncJob) GetName() string {
	return "meta_sync"
}

// GetSchedule 获取调度配置
func (j *MetaSyncJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *MetaSyncJob) Execute() {
	campaigns := j.factory.Campaigns()
	synced := 0

	for _, c := range campaigns {
		meta, err := j.metaLogic.GetByUuid(c.ExternalID)
		if err != nil {
			// 只上链、未建档的活动没有投影可对账
			continue
		}

		status := projectStatus(c)
		if meta.CurrentAmount == c.TotalRaised.String() &&
			meta.Status == status &&
			meta.CampaignKey == c.Key.Hex() {
			continue
		}

		updates := map[string]interface{}{
			"campaign_key":   c.Key.Hex(),
			"current_amount": c.TotalRaised.String(),
			"status":         status,
			"title":          c.Title,
			"description":    c.Description,
			"goal_amount":    c.GoalAmount.String(),
			"deadline":       c.Deadline,
		}
		if err := j.metaLogic.UpdateMeta(c.ExternalID, updates); err != nil {
			logger.Error("Meta sync failed for campaign %s: %v", c.ExternalID, err)
			continue
		}
		synced++
	}

	if synced > 0 {
		logger.Info("Meta sync completed, reconciled %d campaigns", synced)
	}
}

// projectStatus 由状态机状态推导投影状态
func projectStatus(c *contract.Campaign) model.CampaignStatus {
	if !c.Finalized {
		return model.CampaignStatusActive
	}
	if c.RefundEnabled {
		return model.CampaignStatusFailed
	}
	return model.CampaignStatusSuccess
}
