package event

import (
	"context"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/logger"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/logic"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/metrics"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/model"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/output"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

const (
	defaultQueueSize  = 1024
	defaultOutputPool = 8
)

// eventJournal 事件流水存储，按 seq 幂等
type eventJournal interface {
	RecordEvent(event contract.Event) (*model.EventModel, error)
	MarkProcessed(seq uint64) error
	LastProcessedSeq() (uint64, error)
}

// eventProcessor 事件处理器，更新业务投影
type eventProcessor interface {
	Process(event contract.Event) error
}

// Dispatcher 事件分发器。实现 contract.EventSink：状态机在持锁期间调用
// Publish，这里只做入队、立即返回。消费协程按序号顺序写流水表并更新
// 业务投影，外发（Kafka/日志）交给协程池异步完成，不阻塞投影更新。
type Dispatcher struct {
	queue  chan contract.Event
	pool   *ants.Pool
	out    output.EventOutput
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	journal           eventJournal
	campaignProcessor eventProcessor
	donationProcessor eventProcessor
	refundProcessor   eventProcessor
}

// NewDispatcher 创建事件分发器
func NewDispatcher(db *gorm.DB, out output.EventOutput) (*Dispatcher, error) {
	metaLogic := logic.NewCampaignMetaLogic(db)

	return newDispatcher(
		logic.NewEventLogic(db),
		NewCampaignProcessor(metaLogic),
		NewDonationProcessor(metaLogic, logic.NewDonationRecordLogic(db)),
		NewRefundProcessor(logic.NewRefundRecordLogic(db)),
		out,
	)
}

// newDispatcher 按给定的流水存储和处理器组装分发器
func newDispatcher(journal eventJournal, campaign, donation, refund eventProcessor, out output.EventOutput) (*Dispatcher, error) {
	pool, err := ants.NewPool(defaultOutputPool)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		queue:             make(chan contract.Event, defaultQueueSize),
		pool:              pool,
		out:               out,
		ctx:               ctx,
		cancel:            cancel,
		done:              make(chan struct{}),
		journal:           journal,
		campaignProcessor: campaign,
		donationProcessor: donation,
		refundProcessor:   refund,
	}, nil
}

// Publish 实现 contract.EventSink。队列满时丢给日志并计数，
// 绝不阻塞状态机。
func (d *Dispatcher) Publish(event contract.Event) {
	select {
	case d.queue <- event:
		metrics.EventQueueDepth.Set(float64(len(d.queue)))
	default:
		logger.Error("Event queue full, dropping event seq=%d type=%s", event.Seq, event.Type)
	}
}

// Start 启动消费协程
func (d *Dispatcher) Start() {
	if seq, err := d.journal.LastProcessedSeq(); err == nil && seq > 0 {
		logger.Info("Event journal resumes from seq=%d", seq)
	}
	go d.loop()
	logger.Info("Event dispatcher started")
}

// Stop 停止分发器，排空队列后返回
func (d *Dispatcher) Stop() {
	d.cancel()
	<-d.done
	d.pool.Release()
	if err := d.out.Close(); err != nil {
		logger.Error("Failed to close event output: %v", err)
	}
	logger.Info("Event dispatcher stopped")
}

// loop 消费循环
func (d *Dispatcher) loop() {
	defer close(d.done)

	for {
		select {
		case event := <-d.queue:
			d.handle(event)
			metrics.EventQueueDepth.Set(float64(len(d.queue)))
		case <-d.ctx.Done():
			// 排空剩余事件
			for {
				select {
				case event := <-d.queue:
					d.handle(event)
				default:
					metrics.EventQueueDepth.Set(0)
					return
				}
			}
		}
	}
}

// handle 处理单条事件：落流水、更新投影、异步外发
func (d *Dispatcher) handle(event contract.Event) {
	record, err := d.journal.RecordEvent(event)
	if err != nil {
		logger.Error("Failed to record event seq=%d: %v", event.Seq, err)
		return
	}
	if record == nil {
		// 流水已存在，重复投递，跳过
		return
	}

	if err := d.process(event); err != nil {
		logger.Error("Failed to process event seq=%d type=%s: %v", event.Seq, event.Type, err)
		return
	}

	if err := d.journal.MarkProcessed(event.Seq); err != nil {
		logger.Error("Failed to mark event seq=%d processed: %v", event.Seq, err)
	}

	// 外发不影响投影结果，交给协程池
	if err := d.pool.Submit(func() {
		if err := d.out.WriteEvent(event); err != nil {
			logger.Error("Failed to write event seq=%d to output: %v", event.Seq, err)
		}
	}); err != nil {
		logger.Error("Failed to submit event seq=%d to output pool: %v", event.Seq, err)
	}
}

// process 按事件类型分发给处理器
func (d *Dispatcher) process(event contract.Event) error {
	switch event.Type {
	case contract.EventCampaignCreated, contract.EventCampaignEdited, contract.EventCampaignFinalized:
		return d.campaignProcessor.Process(event)
	case contract.EventDonationReceived:
		return d.donationProcessor.Process(event)
	case contract.EventRefundIssued:
		return d.refundProcessor.Process(event)
	default:
		logger.Warn("Unknown event type: %s", event.Type)
		return nil
	}
}
