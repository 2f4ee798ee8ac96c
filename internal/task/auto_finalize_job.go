package task

import (
	"errors"
	"time"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/config"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// AutoFinalizeJob 平台代终结任务。定期扫描满足终结条件但无人终结的活动，
// 以平台管理地址代为终结。这是针对被放弃活动的兜底能力，默认关闭，
// 每次代终结都会留下审计日志。
type AutoFinalizeJob struct {
	factory *contract.CampaignFactory
	config  *config.Config
}

// NewAutoFinalizeJob 创建平台代终结任务
func NewAutoFinalizeJob(factory *contract.CampaignFactory, cfg *config.Config) *AutoFinalizeJob {
	return &AutoFinalizeJob{
		factory: factory,
		config:  cfg,
	}
}

// GetName 获取任务名称
func (j *AutoFinalizeJob) GetName() string {
	return "auto_finalize"
}

// GetSchedule 获取调度配置
func (j *AutoFinalizeJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *AutoFinalizeJob) Execute() {
	eligible := j.factory.FinalizeEligible()
	if len(eligible) == 0 {
		return
	}

	logger.Info("Auto-finalize: %d campaigns eligible", len(eligible))
	owner := j.factory.Owner()

	finalized := 0
	for _, uid := range eligible {
		if err := j.factory.FinalizeCampaign(owner, uid); err != nil {
			// 与用户手动终结并发时可能已被终结，不算失败
			if errors.Is(err, contract.ErrAlreadyFinalized) {
				continue
			}
			logger.Error("Auto-finalize failed for campaign %s: %v", uid, err)
			continue
		}
		// 审计：平台代终结必须可追溯
		logger.Info("AUDIT auto-finalize: campaign=%s operator=%s", uid, owner.Hex())
		finalized++
	}

	logger.Info("Auto-finalize completed, finalized %d campaigns", finalized)
}
