package config

import (
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`

	// 请求限流，0 表示不限流
	RateLimit int `mapstructure:"rate_limit"` // 每秒请求数
	RateBurst int `mapstructure:"rate_burst"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ChainConfig 活动状态机配置
type ChainConfig struct {
	OwnerAddress   string `mapstructure:"owner_address"`   // 平台管理地址
	EscrowAddress  string `mapstructure:"escrow_address"`  // 托管账户地址
	LeaderboardCap int    `mapstructure:"leaderboard_cap"` // 排行榜追踪的最大名次
	StatePath      string `mapstructure:"state_path"`      // 状态快照数据库路径

	// GenesisBalances 首次启动时铸入账本的初始余额（地址 -> wei），
	// 已有账本快照时忽略
	GenesisBalances map[string]string `mapstructure:"genesis_balances"`

	// FaucetEnabled 是否开放充值接口，生产环境应关闭
	FaucetEnabled bool `mapstructure:"faucet_enabled"`
}

// KafkaConfig 事件外发配置，未配置 brokers 时事件只落库
type KafkaConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	Brokers []string          `mapstructure:"brokers"`
	Topics  map[string]string `mapstructure:"topics"` // 事件类型到topic的映射
}

type TaskConfig struct {
	Interval     int  `mapstructure:"interval"`      // 秒
	AutoFinalize bool `mapstructure:"auto_finalize"` // 平台是否代为终结到期活动
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/charity")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.rate_limit", 0)
	viper.SetDefault("server.rate_burst", 0)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "charity")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("chain.leaderboard_cap", 50)
	viper.SetDefault("chain.state_path", "./data/state.db")
	viper.SetDefault("chain.faucet_enabled", true)
	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("task.auto_finalize", false)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
