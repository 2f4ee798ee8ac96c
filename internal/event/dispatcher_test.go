package event

import (
	"sync"
	"testing"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJournal 内存事件流水，与数据库实现同样按 seq 幂等
type fakeJournal struct {
	mu        sync.Mutex
	records   map[uint64]*model.EventModel
	processed map[uint64]bool
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{
		records:   make(map[uint64]*model.EventModel),
		processed: make(map[uint64]bool),
	}
}

func (j *fakeJournal) RecordEvent(event contract.Event) (*model.EventModel, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, exists := j.records[event.Seq]; exists {
		return nil, nil
	}
	record := &model.EventModel{
		Uuid:      event.ExternalID,
		EventType: string(event.Type),
		Seq:       event.Seq,
	}
	j.records[event.Seq] = record
	return record, nil
}

func (j *fakeJournal) MarkProcessed(seq uint64) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.processed[seq] = true
	return nil
}

func (j *fakeJournal) LastProcessedSeq() (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var last uint64
	for seq := range j.processed {
		if seq > last {
			last = seq
		}
	}
	return last, nil
}

// fakeProcessor 记录被处理的事件
type fakeProcessor struct {
	mu     sync.Mutex
	events []contract.Event
}

func (p *fakeProcessor) Process(event contract.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakeProcessor) seqs() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]uint64, len(p.events))
	for i, e := range p.events {
		out[i] = e.Seq
	}
	return out
}

// fakeOutput 外发器空实现
type fakeOutput struct{}

func (fakeOutput) WriteEvent(contract.Event) error { return nil }
func (fakeOutput) Close() error                    { return nil }

func newTestDispatcher(t *testing.T) (*Dispatcher, *fakeJournal, *fakeProcessor) {
	t.Helper()
	journal := newFakeJournal()
	processor := &fakeProcessor{}
	d, err := newDispatcher(journal, processor, processor, processor, fakeOutput{})
	require.NoError(t, err)
	return d, journal, processor
}

func donationEvent(seq uint64) contract.Event {
	return contract.Event{
		Type:       contract.EventDonationReceived,
		ExternalID: "campaign-001",
		Seq:        seq,
		Payload:    contract.DonationPayload{Amount: "1"},
	}
}

func TestDispatcher_DuplicateSeqSkipped(t *testing.T) {
	d, journal, processor := newTestDispatcher(t)
	d.Start()

	// 同一条事件重复投递，只落一条流水、只处理一次
	d.Publish(donationEvent(1))
	d.Publish(donationEvent(1))
	d.Publish(donationEvent(2))
	d.Stop()

	assert.Equal(t, []uint64{1, 2}, processor.seqs())
	assert.Len(t, journal.records, 2)
	assert.True(t, journal.processed[1])
	assert.True(t, journal.processed[2])
}

func TestDispatcher_StopDrainsQueue(t *testing.T) {
	d, journal, processor := newTestDispatcher(t)

	// 事件先入队，消费启动后立即停止，停止前必须排空
	for seq := uint64(1); seq <= 20; seq++ {
		d.Publish(donationEvent(seq))
	}
	d.Start()
	d.Stop()

	assert.Len(t, processor.seqs(), 20)
	assert.Len(t, journal.records, 20)
	for seq := uint64(1); seq <= 20; seq++ {
		assert.True(t, journal.processed[seq], "seq %d not processed", seq)
	}
}

func TestDispatcher_ProcessedInSeqOrder(t *testing.T) {
	d, _, processor := newTestDispatcher(t)
	d.Start()

	for seq := uint64(1); seq <= 10; seq++ {
		d.Publish(donationEvent(seq))
	}
	d.Stop()

	// 单消费协程保证投影按序号顺序更新
	seqs := processor.seqs()
	require.Len(t, seqs, 10)
	for i, seq := range seqs {
		assert.Equal(t, uint64(i+1), seq)
	}
}

func TestDispatcher_RoutesByEventType(t *testing.T) {
	journal := newFakeJournal()
	campaign := &fakeProcessor{}
	donation := &fakeProcessor{}
	refund := &fakeProcessor{}
	d, err := newDispatcher(journal, campaign, donation, refund, fakeOutput{})
	require.NoError(t, err)
	d.Start()

	d.Publish(contract.Event{Type: contract.EventCampaignCreated, Seq: 1})
	d.Publish(contract.Event{Type: contract.EventDonationReceived, Seq: 2})
	d.Publish(contract.Event{Type: contract.EventRefundIssued, Seq: 3})
	d.Publish(contract.Event{Type: contract.EventCampaignFinalized, Seq: 4})
	d.Stop()

	assert.Equal(t, []uint64{1, 4}, campaign.seqs())
	assert.Equal(t, []uint64{2}, donation.seqs())
	assert.Equal(t, []uint64{3}, refund.seqs())
}
