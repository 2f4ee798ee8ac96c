package contract

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDonate_MovesFundsToEscrow(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")

	require.NoError(t, env.factory.Donate(testDonor1, "campaign-001", big.NewInt(4)))

	assert.Equal(t, int64(4), env.bank.balanceOf(testEscrow).Int64())
	assert.Equal(t, int64(996), env.bank.balanceOf(testDonor1).Int64())

	c, err := env.factory.GetCampaign("campaign-001")
	require.NoError(t, err)
	assert.Equal(t, int64(4), c.TotalRaised.Int64())
	assert.Equal(t, int64(4), c.Balance().Int64())
	assert.Equal(t, int64(4), env.factory.GetContribution("campaign-001", testDonor1).Int64())

	e := env.sink.last()
	assert.Equal(t, EventDonationReceived, e.Type)
	payload := e.Payload.(DonationPayload)
	assert.Equal(t, testDonor1, payload.Donor)
	assert.Equal(t, "4", payload.Amount)
}

func TestDonate_AccumulatesPerDonor(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")

	require.NoError(t, env.factory.Donate(testDonor1, "campaign-001", big.NewInt(3)))
	require.NoError(t, env.factory.Donate(testDonor2, "campaign-001", big.NewInt(2)))
	require.NoError(t, env.factory.Donate(testDonor1, "campaign-001", big.NewInt(5)))

	assert.Equal(t, int64(8), env.factory.GetContribution("campaign-001", testDonor1).Int64())
	assert.Equal(t, int64(2), env.factory.GetContribution("campaign-001", testDonor2).Int64())

	// 总额恒等于账本中所有捐款之和
	c, err := env.factory.GetCampaign("campaign-001")
	require.NoError(t, err)
	assert.Equal(t, int64(10), c.TotalRaised.Int64())
	assert.Equal(t, int64(10), env.bank.balanceOf(testEscrow).Int64())
}

func TestDonate_DeadlineBoundary(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")

	// 恰好在截止时刻：仍然接受
	env.clock.Advance(30 * 24 * time.Hour)
	require.NoError(t, env.factory.Donate(testDonor1, "campaign-001", big.NewInt(1)))

	// 过截止时刻一秒：拒绝
	env.clock.Advance(time.Second)
	err := env.factory.Donate(testDonor1, "campaign-001", big.NewInt(1))
	assert.ErrorIs(t, err, ErrDeadlinePassed)
	assert.Equal(t, "Campaign deadline passed", err.Error())
}

func TestDonate_Validation(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")

	err := env.factory.Donate(testDonor1, "missing", big.NewInt(1))
	assert.ErrorIs(t, err, ErrCampaignNotFound)

	err = env.factory.Donate(testDonor1, "campaign-001", big.NewInt(0))
	assert.ErrorIs(t, err, ErrZeroDonation)
	assert.Equal(t, "Donation must be greater than 0", err.Error())

	err = env.factory.Donate(testDonor1, "campaign-001", nil)
	assert.ErrorIs(t, err, ErrZeroDonation)
}

// 多个前置条件同时不满足时的错误优先级：存在性 > 金额校验 > 终结标志 > 截止时间
func TestDonate_ErrorPrecedence(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")

	// 活动不存在优先于金额校验
	err := env.factory.Donate(testDonor1, "missing", big.NewInt(0))
	assert.ErrorIs(t, err, ErrCampaignNotFound)

	// 金额校验优先于状态检查：过期活动上捐零报零额错误
	env.clock.Advance(31 * 24 * time.Hour)
	err = env.factory.Donate(testDonor1, "campaign-001", big.NewInt(0))
	assert.ErrorIs(t, err, ErrZeroDonation)

	// 已终结且已过期的活动报终结错误，不报过期错误
	require.NoError(t, env.factory.FinalizeCampaign(testCreator, "campaign-001"))
	err = env.factory.Donate(testDonor1, "campaign-001", big.NewInt(1))
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestDonate_RejectedAfterFinalize(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")
	require.NoError(t, env.factory.Donate(testDonor1, "campaign-001", big.NewInt(10)))
	require.NoError(t, env.factory.FinalizeCampaign(testCreator, "campaign-001"))

	err := env.factory.Donate(testDonor2, "campaign-001", big.NewInt(1))
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestDonate_BankFailureLeavesStateUnchanged(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")
	require.NoError(t, env.factory.Donate(testDonor1, "campaign-001", big.NewInt(3)))

	env.bank.failNext = errBank("wire failure")
	err := env.factory.Donate(testDonor2, "campaign-001", big.NewInt(5))
	require.Error(t, err)

	// 账本、总额、排行榜均不变
	c, err := env.factory.GetCampaign("campaign-001")
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.TotalRaised.Int64())
	assert.Equal(t, int64(0), env.factory.GetContribution("campaign-001", testDonor2).Int64())
	board, err := env.factory.TopDonors("campaign-001", 10)
	require.NoError(t, err)
	assert.Len(t, board, 1)
}

func TestClaimRefund_AfterFailedCampaign(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")
	require.NoError(t, env.factory.Donate(testDonor1, "campaign-001", big.NewInt(3)))

	// 目标10只筹到3，过期后终结，开启退款
	env.clock.Advance(31 * 24 * time.Hour)
	require.NoError(t, env.factory.FinalizeCampaign(testCreator, "campaign-001"))

	amount, err := env.factory.ClaimRefund(testDonor1, "campaign-001")
	require.NoError(t, err)
	assert.Equal(t, int64(3), amount.Int64())
	assert.Equal(t, int64(1000), env.bank.balanceOf(testDonor1).Int64())
	assert.Equal(t, int64(0), env.bank.balanceOf(testEscrow).Int64())
	assert.Equal(t, int64(0), env.factory.GetContribution("campaign-001", testDonor1).Int64())

	e := env.sink.last()
	assert.Equal(t, EventRefundIssued, e.Type)

	// 同一笔捐款只能退一次
	_, err = env.factory.ClaimRefund(testDonor1, "campaign-001")
	assert.ErrorIs(t, err, ErrNoContribution)
	assert.Equal(t, "No contribution to refund", err.Error())
}

func TestClaimRefund_Preconditions(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")
	require.NoError(t, env.factory.Donate(testDonor1, "campaign-001", big.NewInt(3)))

	_, err := env.factory.ClaimRefund(testDonor1, "missing")
	assert.ErrorIs(t, err, ErrCampaignNotFound)

	// 未终结不能退款
	_, err = env.factory.ClaimRefund(testDonor1, "campaign-001")
	assert.ErrorIs(t, err, ErrNotFinalized)

	// 成功终结的活动没有退款
	require.NoError(t, env.factory.Donate(testDonor2, "campaign-001", big.NewInt(7)))
	require.NoError(t, env.factory.FinalizeCampaign(testCreator, "campaign-001"))
	_, err = env.factory.ClaimRefund(testDonor1, "campaign-001")
	assert.ErrorIs(t, err, ErrRefundsDisabled)
}

func TestClaimRefund_NonDonor(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")
	require.NoError(t, env.factory.Donate(testDonor1, "campaign-001", big.NewInt(3)))
	env.clock.Advance(31 * 24 * time.Hour)
	require.NoError(t, env.factory.FinalizeCampaign(testCreator, "campaign-001"))

	_, err := env.factory.ClaimRefund(testDonor2, "campaign-001")
	assert.ErrorIs(t, err, ErrNoContribution)
}

func TestClaimRefund_TransferFailureRollsBack(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")
	require.NoError(t, env.factory.Donate(testDonor1, "campaign-001", big.NewInt(3)))
	env.clock.Advance(31 * 24 * time.Hour)
	require.NoError(t, env.factory.FinalizeCampaign(testCreator, "campaign-001"))

	env.bank.failNext = errBank("wire failure")
	_, err := env.factory.ClaimRefund(testDonor1, "campaign-001")
	require.Error(t, err)

	// 划转失败等价于未发生，账面恢复，可重试
	assert.Equal(t, int64(3), env.factory.GetContribution("campaign-001", testDonor1).Int64())
	c, err := env.factory.GetCampaign("campaign-001")
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.Balance().Int64())

	amount, err := env.factory.ClaimRefund(testDonor1, "campaign-001")
	require.NoError(t, err)
	assert.Equal(t, int64(3), amount.Int64())
}

func TestGetContribution_UnknownReturnsZero(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")

	assert.Equal(t, int64(0), env.factory.GetContribution("campaign-001", testDonor1).Int64())
	assert.Equal(t, int64(0), env.factory.GetContribution("missing", testDonor1).Int64())
}
