package contract

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Bank 价值转移接口。状态机自身不持有资金，所有资金经由 Bank 在
// 外部账户与托管账户之间移动。Transfer 失败时整个操作回滚。
type Bank interface {
	Transfer(from, to common.Address, amount *big.Int) error
}

// Config 状态机配置
type Config struct {
	Owner          common.Address // 平台管理地址，可代为终结被放弃的活动
	Escrow         common.Address // 托管账户地址
	LeaderboardCap int            // 排行榜追踪的最大名次，0 取默认值
	Bank           Bank
	Sink           EventSink        // 可选，事件接收器
	Now            func() time.Time // 可选，时钟，测试用
}

// DefaultLeaderboardCap 排行榜默认容量。超出名次的捐款人不可见，
// 这是刻意的范围限制，用于约束单次操作的开销。
const DefaultLeaderboardCap = 50

// CampaignFactory 众筹活动状态机：活动登记、捐款账本、生命周期控制、
// 捐款排行榜。所有公开操作经由同一把锁串行执行，一次操作的全部效果
// （余额变更、标志位、事件发布）要么全部提交要么全部不发生。
type CampaignFactory struct {
	mu     sync.Mutex
	owner  common.Address
	escrow common.Address
	bank   Bank
	sink   EventSink
	now    func() time.Time
	cap    int

	seq           uint64
	campaigns     map[common.Hash]*Campaign
	keys          []common.Hash // 创建顺序
	userCampaigns map[common.Address][]common.Hash
	contributions map[common.Hash]map[common.Address]*contribution
	boards        map[common.Hash][]BoardEntry
}

// NewCampaignFactory 创建状态机
func NewCampaignFactory(cfg Config) *CampaignFactory {
	if cfg.Bank == nil {
		panic("contract: bank is required")
	}
	sink := cfg.Sink
	if sink == nil {
		sink = nopSink{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	boardCap := cfg.LeaderboardCap
	if boardCap <= 0 {
		boardCap = DefaultLeaderboardCap
	}

	return &CampaignFactory{
		owner:         cfg.Owner,
		escrow:        cfg.Escrow,
		bank:          cfg.Bank,
		sink:          sink,
		now:           now,
		cap:           boardCap,
		campaigns:     make(map[common.Hash]*Campaign),
		userCampaigns: make(map[common.Address][]common.Hash),
		contributions: make(map[common.Hash]map[common.Address]*contribution),
		boards:        make(map[common.Hash][]BoardEntry),
	}
}

// Owner 平台管理地址
func (f *CampaignFactory) Owner() common.Address {
	return f.owner
}

// CreateCampaign 创建活动。key 由 externalID 推导，同一个外部标识符
// 只能绑定一个活动。
func (f *CampaignFactory) CreateCampaign(
	caller, beneficiary common.Address,
	title, description string,
	goalAmount *big.Int,
	durationDays int64,
	externalID string,
) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// 参数校验
	if beneficiary == (common.Address{}) {
		return common.Hash{}, ErrInvalidBeneficiary
	}
	if title == "" {
		return common.Hash{}, ErrEmptyTitle
	}
	if goalAmount == nil || goalAmount.Sign() <= 0 {
		return common.Hash{}, ErrGoalTooLow
	}
	if durationDays <= 0 {
		return common.Hash{}, ErrInvalidDuration
	}

	key := DeriveKey(externalID)
	if _, exists := f.campaigns[key]; exists {
		return common.Hash{}, ErrCampaignExists
	}

	nowSec := f.now().Unix()
	c := &Campaign{
		Key:         key,
		ExternalID:  externalID,
		Creator:     caller,
		Beneficiary: beneficiary,
		Title:       title,
		Description: description,
		GoalAmount:  new(big.Int).Set(goalAmount),
		Deadline:    nowSec + durationDays*86400,
		TotalRaised: new(big.Int),
		CreatedAt:   nowSec,
		balance:     new(big.Int),
	}

	f.seq++
	f.campaigns[key] = c
	f.keys = append(f.keys, key)
	f.userCampaigns[caller] = append(f.userCampaigns[caller], key)
	f.contributions[key] = make(map[common.Address]*contribution)

	f.emit(Event{
		Type:       EventCampaignCreated,
		Key:        key,
		ExternalID: externalID,
		Seq:        f.seq,
		Timestamp:  nowSec,
		Payload: CreatedPayload{
			Creator:     caller,
			Beneficiary: beneficiary,
			Title:       title,
			GoalAmount:  goalAmount.String(),
			Deadline:    c.Deadline,
		},
	})

	return key, nil
}

// EditCampaign 修改活动标题和描述。只有创建者在终结前可以修改，
// 已记录的捐款不受影响。
func (f *CampaignFactory) EditCampaign(caller common.Address, externalID, title, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.campaigns[DeriveKey(externalID)]
	if !ok {
		return ErrCampaignNotFound
	}
	if c.Creator != caller {
		return ErrNotCreator
	}
	if c.Finalized {
		return ErrEditFinalized
	}
	if title == "" {
		return ErrEmptyTitle
	}

	c.Title = title
	c.Description = description

	f.seq++
	f.emit(Event{
		Type:       EventCampaignEdited,
		Key:        c.Key,
		ExternalID: externalID,
		Seq:        f.seq,
		Timestamp:  f.now().Unix(),
		Payload: EditedPayload{
			Title:       title,
			Description: description,
		},
	})

	return nil
}

// GetCampaign 按外部标识符查询活动，返回拷贝
func (f *CampaignFactory) GetCampaign(externalID string) (*Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.campaigns[DeriveKey(externalID)]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	return c.clone(), nil
}

// GetCampaignByKey 按key查询活动，返回拷贝
func (f *CampaignFactory) GetCampaignByKey(key common.Hash) (*Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.campaigns[key]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	return c.clone(), nil
}

// CampaignCount 活动总数
func (f *CampaignFactory) CampaignCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

// Campaigns 返回全部活动的拷贝，按创建顺序
func (f *CampaignFactory) Campaigns() []*Campaign {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*Campaign, 0, len(f.keys))
	for _, key := range f.keys {
		out = append(out, f.campaigns[key].clone())
	}
	return out
}

// UserCampaigns 返回某个创建者的活动key列表，按创建顺序
func (f *CampaignFactory) UserCampaigns(creator common.Address) []common.Hash {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := f.userCampaigns[creator]
	out := make([]common.Hash, len(keys))
	copy(out, keys)
	return out
}

// emit 发布事件。调用时已持锁，sink 实现不得阻塞。
func (f *CampaignFactory) emit(event Event) {
	f.sink.Publish(event)
}
