package main

import (
	"context"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/bank"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/config"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/database"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/event"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/logger"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/output"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/router"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/statestore"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/task"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志器
	initLogger(cfg)
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 打开状态快照存储
	store, err := statestore.NewStore(cfg.Chain.StatePath)
	if err != nil {
		logger.Fatal("Failed to open state store: %v", err)
	}

	// 事件外发：配置了Kafka走Kafka，否则落日志
	var out output.EventOutput
	if cfg.Kafka.Enabled {
		out, err = output.NewKafkaOutput(cfg.Kafka.Brokers, cfg.Kafka.Topics)
		if err != nil {
			logger.Fatal("Failed to initialize kafka output: %v", err)
		}
	} else {
		out = output.NewLogOutput()
	}

	// 事件分发器
	dispatcher, err := event.NewDispatcher(db, out)
	if err != nil {
		logger.Fatal("Failed to create event dispatcher: %v", err)
	}
	dispatcher.Start()

	// 活动状态机和账本
	escrow := common.HexToAddress(cfg.Chain.EscrowAddress)
	memBank := bank.NewMemoryBank()
	factory := contract.NewCampaignFactory(contract.Config{
		Owner:          common.HexToAddress(cfg.Chain.OwnerAddress),
		Escrow:         escrow,
		LeaderboardCap: cfg.Chain.LeaderboardCap,
		Bank:           memBank,
		Sink:           dispatcher,
	})

	// 从最近一份快照恢复状态机
	snap, err := store.Load()
	if err != nil {
		logger.Fatal("Failed to load state snapshot: %v", err)
	}
	if snap != nil {
		factory.Restore(snap)
		logger.Info("State restored from snapshot, seq=%d, campaigns=%d", snap.Seq, len(snap.Campaigns))
	}

	// 恢复账本。没有账本快照时：按状态机快照重建托管账户的退款备付，
	// 并铸入配置的初始余额
	balances, err := store.LoadBank()
	if err != nil {
		logger.Fatal("Failed to load bank snapshot: %v", err)
	}
	if balances != nil {
		memBank.Restore(balances)
		logger.Info("Bank restored from snapshot, accounts=%d", len(balances))
	} else {
		if snap != nil {
			liability := snap.EscrowLiability()
			if liability.Sign() > 0 {
				memBank.Mint(escrow, liability)
				logger.Info("Escrow refund liability rebuilt: %s", liability.String())
			}
		}
		for addr, amount := range cfg.Chain.GenesisBalances {
			if !common.IsHexAddress(addr) {
				logger.Warn("Skipping genesis balance for invalid address %s", addr)
				continue
			}
			value, ok := new(big.Int).SetString(amount, 10)
			if !ok {
				logger.Warn("Skipping genesis balance with invalid amount %s for %s", amount, addr)
				continue
			}
			memBank.Mint(common.HexToAddress(addr), value)
		}
		if len(cfg.Chain.GenesisBalances) > 0 {
			logger.Info("Genesis balances minted, accounts=%d", len(cfg.Chain.GenesisBalances))
		}
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, factory, memBank, cfg)

	// 启动定时任务
	manager := task.Start(db, factory, memBank, store, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}

	// 停止任务，排空事件队列，落一份最终快照
	manager.Stop()
	dispatcher.Stop()
	if err := store.Save(factory.Snapshot()); err != nil {
		logger.Error("Failed to save final snapshot: %v", err)
	}
	if err := store.SaveBank(memBank.Snapshot()); err != nil {
		logger.Error("Failed to save final bank snapshot: %v", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("Failed to close state store: %v", err)
	}

	logger.Info("Server exited")
}

// initLogger 按配置初始化默认日志器
func initLogger(cfg *config.Config) {
	level := logger.ParseLogLevel(cfg.Log.Level)

	var l *logger.Logger
	var err error
	if cfg.Log.Output == "file" {
		l, err = logger.NewWithFileRotation(level, cfg.Log.File)
	} else {
		l, err = logger.New(level)
	}
	if err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	logger.SetDefaultLogger(l)
}
