package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Snapshot 状态机全量快照，可序列化，用于落盘和重启恢复。
// 金额统一使用十进制字符串，避免 JSON 大数精度问题。
type Snapshot struct {
	Seq       uint64          `json:"seq"`
	Campaigns []CampaignState `json:"campaigns"` // 按创建顺序
}

// CampaignState 单个活动的快照
type CampaignState struct {
	ExternalID    string              `json:"external_id"`
	Creator       common.Address      `json:"creator"`
	Beneficiary   common.Address      `json:"beneficiary"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	GoalAmount    string              `json:"goal_amount"`
	Deadline      int64               `json:"deadline"`
	TotalRaised   string              `json:"total_raised"`
	Balance       string              `json:"balance"`
	CreatedAt     int64               `json:"created_at"`
	Finalized     bool                `json:"finalized"`
	RefundEnabled bool                `json:"refund_enabled"`
	Contributions []ContributionState `json:"contributions"`
	Board         []BoardEntryState   `json:"board"`
}

// ContributionState 捐款快照
type ContributionState struct {
	Donor    common.Address `json:"donor"`
	Amount   string         `json:"amount"`
	FirstSeq uint64         `json:"first_seq"`
}

// BoardEntryState 排行榜条目快照
type BoardEntryState struct {
	Donor    common.Address `json:"donor"`
	Amount   string         `json:"amount"`
	FirstSeq uint64         `json:"first_seq"`
}

// Snapshot 导出当前全量状态
func (f *CampaignFactory) Snapshot() *Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := &Snapshot{
		Seq:       f.seq,
		Campaigns: make([]CampaignState, 0, len(f.keys)),
	}

	for _, key := range f.keys {
		c := f.campaigns[key]
		cs := CampaignState{
			ExternalID:    c.ExternalID,
			Creator:       c.Creator,
			Beneficiary:   c.Beneficiary,
			Title:         c.Title,
			Description:   c.Description,
			GoalAmount:    c.GoalAmount.String(),
			Deadline:      c.Deadline,
			TotalRaised:   c.TotalRaised.String(),
			Balance:       c.balance.String(),
			CreatedAt:     c.CreatedAt,
			Finalized:     c.Finalized,
			RefundEnabled: c.RefundEnabled,
		}

		for donor, entry := range f.contributions[key] {
			cs.Contributions = append(cs.Contributions, ContributionState{
				Donor:    donor,
				Amount:   entry.amount.String(),
				FirstSeq: entry.firstSeq,
			})
		}

		for _, be := range f.boards[key] {
			cs.Board = append(cs.Board, BoardEntryState{
				Donor:    be.Donor,
				Amount:   be.Amount.String(),
				FirstSeq: be.firstSeq,
			})
		}

		snap.Campaigns = append(snap.Campaigns, cs)
	}

	return snap
}

// Restore 从快照恢复全量状态，覆盖现有状态。仅在启动时调用。
func (f *CampaignFactory) Restore(snap *Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq = snap.Seq
	f.campaigns = make(map[common.Hash]*Campaign, len(snap.Campaigns))
	f.keys = f.keys[:0]
	f.userCampaigns = make(map[common.Address][]common.Hash)
	f.contributions = make(map[common.Hash]map[common.Address]*contribution)
	f.boards = make(map[common.Hash][]BoardEntry)

	for _, cs := range snap.Campaigns {
		key := DeriveKey(cs.ExternalID)
		c := &Campaign{
			Key:           key,
			ExternalID:    cs.ExternalID,
			Creator:       cs.Creator,
			Beneficiary:   cs.Beneficiary,
			Title:         cs.Title,
			Description:   cs.Description,
			GoalAmount:    mustBig(cs.GoalAmount),
			Deadline:      cs.Deadline,
			TotalRaised:   mustBig(cs.TotalRaised),
			CreatedAt:     cs.CreatedAt,
			Finalized:     cs.Finalized,
			RefundEnabled: cs.RefundEnabled,
			balance:       mustBig(cs.Balance),
		}

		f.campaigns[key] = c
		f.keys = append(f.keys, key)
		f.userCampaigns[c.Creator] = append(f.userCampaigns[c.Creator], key)

		contribs := make(map[common.Address]*contribution, len(cs.Contributions))
		for _, ct := range cs.Contributions {
			contribs[ct.Donor] = &contribution{
				amount:   mustBig(ct.Amount),
				firstSeq: ct.FirstSeq,
			}
		}
		f.contributions[key] = contribs

		board := make([]BoardEntry, 0, len(cs.Board))
		for _, be := range cs.Board {
			board = append(board, BoardEntry{
				Donor:    be.Donor,
				Amount:   mustBig(be.Amount),
				firstSeq: be.FirstSeq,
			})
		}
		f.boards[key] = board
	}
}

// EscrowLiability 快照中全部活动的未转出托管余额之和，即托管账户
// 必须持有的最低金额。账本快照缺失时用它重建托管账户的备付。
func (s *Snapshot) EscrowLiability() *big.Int {
	total := new(big.Int)
	for _, cs := range s.Campaigns {
		total.Add(total, mustBig(cs.Balance))
	}
	return total
}

func mustBig(s string) *big.Int {
	if s == "" {
		return new(big.Int)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}
