package contract

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopDonors_AmountDescending(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")

	// 乱序捐款，排行榜按金额降序
	require.NoError(t, env.factory.Donate(testDonor1, "campaign-001", big.NewInt(3)))
	require.NoError(t, env.factory.Donate(testDonor2, "campaign-001", big.NewInt(8)))
	require.NoError(t, env.factory.Donate(testDonor3, "campaign-001", big.NewInt(5)))

	board, err := env.factory.TopDonors("campaign-001", 10)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, testDonor2, board[0].Donor)
	assert.Equal(t, int64(8), board[0].Amount.Int64())
	assert.Equal(t, testDonor3, board[1].Donor)
	assert.Equal(t, int64(5), board[1].Amount.Int64())
	assert.Equal(t, testDonor1, board[2].Donor)
	assert.Equal(t, int64(3), board[2].Amount.Int64())
}

func TestTopDonors_TieBreakByFirstDonation(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")

	// 金额相同，先捐款者名次在前
	require.NoError(t, env.factory.Donate(testDonor2, "campaign-001", big.NewInt(5)))
	require.NoError(t, env.factory.Donate(testDonor1, "campaign-001", big.NewInt(5)))

	board, err := env.factory.TopDonors("campaign-001", 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, testDonor2, board[0].Donor)
	assert.Equal(t, testDonor1, board[1].Donor)
}

func TestTopDonors_ReRankOnAdditionalDonation(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")

	require.NoError(t, env.factory.Donate(testDonor1, "campaign-001", big.NewInt(3)))
	require.NoError(t, env.factory.Donate(testDonor2, "campaign-001", big.NewInt(8)))

	// 追加捐款后累计金额反超，名次上移
	require.NoError(t, env.factory.Donate(testDonor1, "campaign-001", big.NewInt(6)))

	board, err := env.factory.TopDonors("campaign-001", 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, testDonor1, board[0].Donor)
	assert.Equal(t, int64(9), board[0].Amount.Int64())
	assert.Equal(t, testDonor2, board[1].Donor)
}

func TestTopDonors_CapEvictsLowest(t *testing.T) {
	clock := newFakeClock()
	bank := newTestBank()
	for _, donor := range []common.Address{testDonor1, testDonor2, testDonor3} {
		bank.mint(donor, 1000)
	}
	factory := NewCampaignFactory(Config{
		Owner:          testOwner,
		Escrow:         testEscrow,
		LeaderboardCap: 2,
		Bank:           bank,
		Now:            clock.Now,
	})

	_, err := factory.CreateCampaign(
		testCreator, testBeneficiary, "Capped", "", big.NewInt(100), 30, "campaign-001",
	)
	require.NoError(t, err)

	require.NoError(t, factory.Donate(testDonor1, "campaign-001", big.NewInt(8)))
	require.NoError(t, factory.Donate(testDonor2, "campaign-001", big.NewInt(5)))
	require.NoError(t, factory.Donate(testDonor3, "campaign-001", big.NewInt(3)))

	// 容量2，第三名被裁掉
	board, err := factory.TopDonors("campaign-001", 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, testDonor1, board[0].Donor)
	assert.Equal(t, testDonor2, board[1].Donor)

	// 但账本记录完整，总额不受排行榜容量影响
	assert.Equal(t, int64(3), factory.GetContribution("campaign-001", testDonor3).Int64())
	c, err := factory.GetCampaign("campaign-001")
	require.NoError(t, err)
	assert.Equal(t, int64(16), c.TotalRaised.Int64())
}

func TestTopDonors_LimitAndUnknown(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")
	require.NoError(t, env.factory.Donate(testDonor1, "campaign-001", big.NewInt(3)))
	require.NoError(t, env.factory.Donate(testDonor2, "campaign-001", big.NewInt(8)))

	// n 小于榜单长度时截断
	board, err := env.factory.TopDonors("campaign-001", 1)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, testDonor2, board[0].Donor)

	// 无捐款的活动返回空榜
	env.createCampaign("campaign-002")
	board, err = env.factory.TopDonors("campaign-002", 10)
	require.NoError(t, err)
	assert.Empty(t, board)

	// 活动不存在
	_, err = env.factory.TopDonors("missing", 10)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestTopDonors_ReturnsCopy(t *testing.T) {
	env := newTestEnv()
	env.createCampaign("campaign-001")
	require.NoError(t, env.factory.Donate(testDonor1, "campaign-001", big.NewInt(3)))

	board, err := env.factory.TopDonors("campaign-001", 10)
	require.NoError(t, err)
	board[0].Amount.SetInt64(999)

	fresh, err := env.factory.TopDonors("campaign-001", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), fresh[0].Amount.Int64())
}
