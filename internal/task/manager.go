package task

import (
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/bank"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/config"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/logger"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/statestore"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Job 定时任务接口
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	factory   *contract.CampaignFactory
	bank      *bank.MemoryBank
	store     *statestore.Store
	config    *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(db *gorm.DB, factory *contract.CampaignFactory, memBank *bank.MemoryBank, store *statestore.Store, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		db:        db,
		factory:   factory,
		bank:      memBank,
		store:     store,
		config:    cfg,
	}
}

// Start 启动任务管理器
func Start(db *gorm.DB, factory *contract.CampaignFactory, memBank *bank.MemoryBank, store *statestore.Store, cfg *config.Config) *Manager {
	manager := NewManager(db, factory, memBank, store, cfg)

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	// 平台代终结任务需要显式开启
	if m.config.Task.AutoFinalize {
		m.registerJob(NewAutoFinalizeJob(m.factory, m.config))
	}
	m.registerJob(NewMetaSyncJob(m.db, m.factory, m.config))
	m.registerJob(NewSnapshotJob(m.factory, m.bank, m.store, m.config))
}

// registerJob 注册单个任务
func (m *Manager) registerJob(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
