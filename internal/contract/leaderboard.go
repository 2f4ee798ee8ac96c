package contract

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// BoardEntry 排行榜条目
type BoardEntry struct {
	Donor    common.Address `json:"donor"`
	Amount   *big.Int       `json:"amount"`
	firstSeq uint64
}

// upsertBoard 把捐款人的最新累计金额写入排行榜。每次捐款后重排，
// 金额降序，金额相同按首笔捐款先后排序，超出容量的名次被裁掉。
// 调用时已持锁。
func (f *CampaignFactory) upsertBoard(key common.Hash, donor common.Address, entry *contribution) {
	board := f.boards[key]

	found := false
	for i := range board {
		if board[i].Donor == donor {
			board[i].Amount.Set(entry.amount)
			found = true
			break
		}
	}
	if !found {
		board = append(board, BoardEntry{
			Donor:    donor,
			Amount:   new(big.Int).Set(entry.amount),
			firstSeq: entry.firstSeq,
		})
	}

	sort.SliceStable(board, func(i, j int) bool {
		if cmp := board[i].Amount.Cmp(board[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return board[i].firstSeq < board[j].firstSeq
	})

	if len(board) > f.cap {
		board = board[:f.cap]
	}
	f.boards[key] = board
}

// TopDonors 返回活动的前 n 名捐款人，金额降序，并列时先捐款者在前。
// n 超过追踪容量时按容量截断。只读，不改变账本状态。
func (f *CampaignFactory) TopDonors(externalID string, n int) ([]BoardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := DeriveKey(externalID)
	if _, ok := f.campaigns[key]; !ok {
		return nil, ErrCampaignNotFound
	}

	board := f.boards[key]
	if n <= 0 || n > len(board) {
		n = len(board)
	}

	out := make([]BoardEntry, n)
	for i := 0; i < n; i++ {
		out[i] = BoardEntry{
			Donor:    board[i].Donor,
			Amount:   new(big.Int).Set(board[i].Amount),
			firstSeq: board[i].firstSeq,
		}
	}
	return out, nil
}
