package task

import (
	"time"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/bank"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/config"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/logger"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/statestore"
	"github.com/go-co-op/gocron/v2"
)

// SnapshotJob 状态快照任务，定期把状态机和账本的全量状态落盘
type SnapshotJob struct {
	factory *contract.CampaignFactory
	bank    *bank.MemoryBank
	store   *statestore.Store
	config  *config.Config

	lastSeq uint64
}

// NewSnapshotJob 创建状态快照任务
func NewSnapshotJob(factory *contract.CampaignFactory, memBank *bank.MemoryBank, store *statestore.Store, cfg *config.Config) *SnapshotJob {
	return &SnapshotJob{
		factory: factory,
		bank:    memBank,
		store:   store,
		config:  cfg,
	}
}

// GetName 获取任务名称
func (j *SnapshotJob) GetName() string {
	return "state_snapshot"
}

// GetSchedule 获取调度配置
func (j *SnapshotJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *SnapshotJob) Execute() {
	snap := j.factory.Snapshot()
	if snap.Seq == j.lastSeq {
		// 无新操作，跳过本轮落盘
		return
	}

	if err := j.store.Save(snap); err != nil {
		logger.Error("Failed to save state snapshot: %v", err)
		return
	}
	// 账本快照与状态机快照配套落盘，重启后退款备付不丢失
	if err := j.store.SaveBank(j.bank.Snapshot()); err != nil {
		logger.Error("Failed to save bank snapshot: %v", err)
		return
	}

	j.lastSeq = snap.Seq
	logger.Debug("State snapshot saved, seq=%d, campaigns=%d", snap.Seq, len(snap.Campaigns))
}
