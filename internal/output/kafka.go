package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/logger"
	"github.com/IBM/sarama"
)

// KafkaOutput Kafka事件外发器
type KafkaOutput struct {
	topics   map[string]string // 事件类型到topic的映射
	producer sarama.SyncProducer
}

// NewKafkaOutput 创建Kafka事件外发器
func NewKafkaOutput(brokers []string, topics map[string]string) (*KafkaOutput, error) {
	logger.Info("初始化Kafka输出器，brokers: %v", brokers)

	// 配置Kafka生产者
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second
	config.Version = sarama.V2_8_0_0

	// 创建同步生产者
	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("创建Kafka生产者失败: %w", err)
	}

	return &KafkaOutput{
		topics:   topics,
		producer: producer,
	}, nil
}

// WriteEvent 发送事件到Kafka，key 为活动key，保证同一活动的事件
// 落在同一分区、保持顺序
func (k *KafkaOutput) WriteEvent(event contract.Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	topic, exists := k.topics[string(event.Type)]
	if !exists {
		topic = "charity_campaign_events"
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.Key.Hex()),
		Value: sarama.ByteEncoder(jsonData),
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("发送事件到Kafka失败: %w", err)
	}

	logger.Debug("事件已发送到Kafka topic '%s' (partition: %d, offset: %d), seq=%d",
		topic, partition, offset, event.Seq)

	return nil
}

// Close 关闭Kafka连接
func (k *KafkaOutput) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}
