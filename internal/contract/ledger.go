package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Donate 捐款。金额先从捐款人账户划入托管账户，划转成功后才记账：
// 累计捐款、活动总额、排行榜在同一次持锁中一并更新，保证
// totalRaised 恒等于账本中所有捐款之和。
func (f *CampaignFactory) Donate(caller common.Address, externalID string, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.campaigns[DeriveKey(externalID)]
	if !ok {
		return ErrCampaignNotFound
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroDonation
	}
	if c.Finalized {
		return ErrAlreadyFinalized
	}
	// 截止时间为含边界：now == deadline 仍然接受
	if f.now().Unix() > c.Deadline {
		return ErrDeadlinePassed
	}

	if err := f.bank.Transfer(caller, f.escrow, amount); err != nil {
		return err
	}

	f.seq++
	entry, ok := f.contributions[c.Key][caller]
	if !ok {
		entry = &contribution{amount: new(big.Int), firstSeq: f.seq}
		f.contributions[c.Key][caller] = entry
	}
	entry.amount.Add(entry.amount, amount)
	c.TotalRaised.Add(c.TotalRaised, amount)
	c.balance.Add(c.balance, amount)

	f.upsertBoard(c.Key, caller, entry)

	f.emit(Event{
		Type:       EventDonationReceived,
		Key:        c.Key,
		ExternalID: externalID,
		Seq:        f.seq,
		Timestamp:  f.now().Unix(),
		Payload: DonationPayload{
			Donor:  caller,
			Amount: amount.String(),
		},
	})

	return nil
}

// ClaimRefund 领取退款。仅当活动已终结且开启退款时可领取。
// 先清零账面捐款再划转资金（先记账后交互），划转失败则恢复账面，
// 整个操作等价于未发生，可重试。
func (f *CampaignFactory) ClaimRefund(caller common.Address, externalID string) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.campaigns[DeriveKey(externalID)]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	if !c.Finalized {
		return nil, ErrNotFinalized
	}
	if !c.RefundEnabled {
		return nil, ErrRefundsDisabled
	}
	entry := f.contributions[c.Key][caller]
	if entry == nil || entry.amount.Sign() == 0 {
		return nil, ErrNoContribution
	}

	// 先清零，再转账。金额清零后即使转账过程触发对状态机的任何回调，
	// 账面上也已没有可退款项。
	amount := new(big.Int).Set(entry.amount)
	entry.amount.SetInt64(0)
	c.balance.Sub(c.balance, amount)

	if err := f.bank.Transfer(f.escrow, caller, amount); err != nil {
		// 回滚，操作整体失败
		entry.amount.Set(amount)
		c.balance.Add(c.balance, amount)
		return nil, err
	}

	f.seq++
	f.emit(Event{
		Type:       EventRefundIssued,
		Key:        c.Key,
		ExternalID: externalID,
		Seq:        f.seq,
		Timestamp:  f.now().Unix(),
		Payload: RefundPayload{
			Donor:  caller,
			Amount: amount.String(),
		},
	})

	return amount, nil
}

// GetContribution 查询某个捐款人的累计捐款，已退款的记为0。
// 活动不存在时返回0，与账本语义一致。
func (f *CampaignFactory) GetContribution(externalID string, donor common.Address) *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry := f.contributions[DeriveKey(externalID)][donor]
	if entry == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(entry.amount)
}
