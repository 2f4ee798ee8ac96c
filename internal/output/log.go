package output

import (
	"encoding/json"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/logger"
)

// LogOutput 日志事件外发器，未配置Kafka时的默认实现
type LogOutput struct{}

// NewLogOutput 创建日志外发器
func NewLogOutput() *LogOutput {
	return &LogOutput{}
}

// WriteEvent 把事件写入日志
func (o *LogOutput) WriteEvent(event contract.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	logger.Info("event: %s", string(data))
	return nil
}

// Close 无资源可释放
func (o *LogOutput) Close() error {
	return nil
}
