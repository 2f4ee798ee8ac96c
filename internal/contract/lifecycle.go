package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// FinalizeCampaign 终结活动，Active 到终态的唯一一次状态迁移。
// 达到目标金额：关闭退款并把全部托管余额转给受益人，转账与标志位
// 变更是原子的，转账失败整个调用回滚，活动仍为进行中、可重试。
// 未达目标：开启退款，资金留在托管账户等待捐款人逐个领取。
func (f *CampaignFactory) FinalizeCampaign(caller common.Address, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.campaigns[DeriveKey(externalID)]
	if !ok {
		return ErrCampaignNotFound
	}
	if caller != c.Creator && caller != c.Beneficiary && caller != f.owner {
		return ErrNotAuthorized
	}
	if c.Finalized {
		return ErrAlreadyFinalized
	}

	nowSec := f.now().Unix()
	success := c.TotalRaised.Cmp(c.GoalAmount) >= 0
	// 提前达标的活动可以立即终结，不必等到截止时间
	if nowSec <= c.Deadline && !success {
		return ErrNotEligible
	}

	if success {
		c.Finalized = true
		c.RefundEnabled = false
		payout := new(big.Int).Set(c.balance)
		c.balance.SetInt64(0)

		if err := f.bank.Transfer(f.escrow, c.Beneficiary, payout); err != nil {
			// 回滚，活动保持进行中，之后可重试
			c.Finalized = false
			c.balance.Set(payout)
			return err
		}
	} else {
		c.Finalized = true
		c.RefundEnabled = true
	}

	f.seq++
	f.emit(Event{
		Type:       EventCampaignFinalized,
		Key:        c.Key,
		ExternalID: externalID,
		Seq:        f.seq,
		Timestamp:  nowSec,
		Payload: FinalizedPayload{
			Caller:      caller,
			TotalRaised: c.TotalRaised.String(),
			Success:     success,
		},
	})

	return nil
}

// FinalizeEligible 返回当前满足终结条件但尚未终结的活动外部标识符列表，
// 供平台定时任务代为终结被放弃的活动。
func (f *CampaignFactory) FinalizeEligible() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	nowSec := f.now().Unix()
	var out []string
	for _, key := range f.keys {
		c := f.campaigns[key]
		if c.Finalized {
			continue
		}
		if nowSec > c.Deadline || c.TotalRaised.Cmp(c.GoalAmount) >= 0 {
			out = append(out, c.ExternalID)
		}
	}
	return out
}
