package bank

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addrA = common.HexToAddress("0x0000000000000000000000000000000000000001")
	addrB = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func TestTransfer_Success(t *testing.T) {
	b := NewMemoryBank()
	b.Mint(addrA, big.NewInt(100))

	require.NoError(t, b.Transfer(addrA, addrB, big.NewInt(30)))

	assert.Equal(t, int64(70), b.BalanceOf(addrA).Int64())
	assert.Equal(t, int64(30), b.BalanceOf(addrB).Int64())
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	b := NewMemoryBank()
	b.Mint(addrA, big.NewInt(10))

	err := b.Transfer(addrA, addrB, big.NewInt(11))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// 失败的转账不产生任何变更
	assert.Equal(t, int64(10), b.BalanceOf(addrA).Int64())
	assert.Equal(t, int64(0), b.BalanceOf(addrB).Int64())
}

func TestTransfer_InvalidAmount(t *testing.T) {
	b := NewMemoryBank()
	b.Mint(addrA, big.NewInt(10))

	assert.ErrorIs(t, b.Transfer(addrA, addrB, big.NewInt(0)), ErrInvalidAmount)
	assert.ErrorIs(t, b.Transfer(addrA, addrB, big.NewInt(-1)), ErrInvalidAmount)
	assert.ErrorIs(t, b.Transfer(addrA, addrB, nil), ErrInvalidAmount)
}

func TestBalanceOf_ReturnsCopy(t *testing.T) {
	b := NewMemoryBank()
	b.Mint(addrA, big.NewInt(100))

	bal := b.BalanceOf(addrA)
	bal.SetInt64(0)

	assert.Equal(t, int64(100), b.BalanceOf(addrA).Int64())
}

func TestSnapshotRestore_Roundtrip(t *testing.T) {
	b := NewMemoryBank()
	b.Mint(addrA, big.NewInt(100))
	b.Mint(addrB, big.NewInt(30))
	require.NoError(t, b.Transfer(addrA, addrB, big.NewInt(20)))

	snap := b.Snapshot()
	assert.Equal(t, "80", snap[addrA.Hex()])
	assert.Equal(t, "50", snap[addrB.Hex()])

	// 恢复到全新账本实例，余额完整、可继续转账
	fresh := NewMemoryBank()
	fresh.Restore(snap)
	assert.Equal(t, int64(80), fresh.BalanceOf(addrA).Int64())
	assert.Equal(t, int64(50), fresh.BalanceOf(addrB).Int64())
	require.NoError(t, fresh.Transfer(addrB, addrA, big.NewInt(50)))
	assert.Equal(t, int64(130), fresh.BalanceOf(addrA).Int64())
}

func TestSnapshot_OmitsZeroBalances(t *testing.T) {
	b := NewMemoryBank()
	b.Mint(addrA, big.NewInt(10))
	require.NoError(t, b.Transfer(addrA, addrB, big.NewInt(10)))

	snap := b.Snapshot()
	_, hasA := snap[addrA.Hex()]
	assert.False(t, hasA)
	assert.Equal(t, "10", snap[addrB.Hex()])
}

func TestRestore_SkipsInvalidEntries(t *testing.T) {
	b := NewMemoryBank()
	b.Mint(addrA, big.NewInt(999))

	b.Restore(map[string]string{
		addrB.Hex(): "42",
		addrA.Hex(): "not-a-number",
	})

	// 恢复覆盖现有状态，非法金额被跳过
	assert.Equal(t, int64(0), b.BalanceOf(addrA).Int64())
	assert.Equal(t, int64(42), b.BalanceOf(addrB).Int64())
}

func TestMint_Accumulates(t *testing.T) {
	b := NewMemoryBank()
	b.Mint(addrA, big.NewInt(50))
	b.Mint(addrA, big.NewInt(25))
	b.Mint(addrA, big.NewInt(0)) // 无效充值被忽略
	b.Mint(addrA, nil)

	assert.Equal(t, int64(75), b.BalanceOf(addrA).Int64())
}
