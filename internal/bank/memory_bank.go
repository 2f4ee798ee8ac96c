package bank

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// 转账错误
var (
	ErrInvalidAmount     = errors.New("transfer amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// MemoryBank 内存账户账本，承担状态机的价值转移。每个地址一个余额，
// 转账在锁内原子完成，余额不足即失败、不产生任何变更。
// 用于本地部署和测试；接入真实结算通道时替换此实现。
type MemoryBank struct {
	mu       sync.Mutex
	balances map[common.Address]*big.Int
}

// NewMemoryBank 创建内存账本
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{
		balances: make(map[common.Address]*big.Int),
	}
}

// Transfer 从 from 向 to 转账
func (b *MemoryBank) Transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	src := b.balances[from]
	if src == nil || src.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}

	src.Sub(src, amount)
	dst := b.balances[to]
	if dst == nil {
		dst = new(big.Int)
		b.balances[to] = dst
	}
	dst.Add(dst, amount)
	return nil
}

// BalanceOf 查询余额
func (b *MemoryBank) BalanceOf(addr common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	bal := b.balances[addr]
	if bal == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(bal)
}

// Mint 给地址充值，本地联调和测试用
func (b *MemoryBank) Mint(addr common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	bal := b.balances[addr]
	if bal == nil {
		bal = new(big.Int)
		b.balances[addr] = bal
	}
	bal.Add(bal, amount)
}

// Snapshot 导出全部账户余额，金额为十进制字符串，可序列化落盘
func (b *MemoryBank) Snapshot() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]string, len(b.balances))
	for addr, bal := range b.balances {
		if bal.Sign() > 0 {
			out[addr.Hex()] = bal.String()
		}
	}
	return out
}

// Restore 从快照恢复全部账户余额，覆盖现有状态。仅在启动时调用。
func (b *MemoryBank) Restore(balances map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.balances = make(map[common.Address]*big.Int, len(balances))
	for addr, amount := range balances {
		bal, ok := new(big.Int).SetString(amount, 10)
		if !ok || bal.Sign() <= 0 {
			continue
		}
		b.balances[common.HexToAddress(addr)] = bal
	}
}
