package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Campaign 众筹活动。创建后 Creator/Beneficiary/GoalAmount/Deadline 不可变，
// Title/Description 在终结前可由创建者修改，TotalRaised 在终结前单调递增。
type Campaign struct {
	Key         common.Hash    `json:"key"`
	ExternalID  string         `json:"external_id"` // 链下元数据记录的UUID
	Creator     common.Address `json:"creator"`
	Beneficiary common.Address `json:"beneficiary"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	GoalAmount  *big.Int       `json:"goal_amount"`
	Deadline    int64          `json:"deadline"` // unix秒，含边界（== Deadline 仍可捐款）
	TotalRaised *big.Int       `json:"total_raised"`
	CreatedAt   int64          `json:"created_at"`

	// 终结标志，单向 false -> true。RefundEnabled 仅在 Finalized 为真时有意义：
	// 真表示终结时未达目标，捐款人可逐个领取退款。
	Finalized     bool `json:"finalized"`
	RefundEnabled bool `json:"refund_enabled"`

	// balance 为托管在状态机内的未转出资金。活动进行中等于 TotalRaised，
	// 成功终结后清零，退款每领取一笔减少一笔。
	balance *big.Int
}

// Balance 当前托管余额
func (c *Campaign) Balance() *big.Int {
	return new(big.Int).Set(c.balance)
}

// clone 返回深拷贝，读接口只返回拷贝，避免调用方改写内部状态
func (c *Campaign) clone() *Campaign {
	cp := *c
	cp.GoalAmount = new(big.Int).Set(c.GoalAmount)
	cp.TotalRaised = new(big.Int).Set(c.TotalRaised)
	cp.balance = new(big.Int).Set(c.balance)
	return &cp
}

// contribution 单个捐款人在单个活动上的累计捐款。退款领取后金额清零但记录保留，
// 保证同一笔捐款只能退一次。
type contribution struct {
	amount   *big.Int
	firstSeq uint64 // 首笔捐款的全局序号，用于排行榜并列时的先后排序
}

// DeriveKey 由外部标识符推导活动key。单向哈希保证同一个外部标识符
// 总是映射到同一个key，链下记录可以在上链前后任意时刻完成关联。
func DeriveKey(externalID string) common.Hash {
	return crypto.Keccak256Hash([]byte(externalID))
}
