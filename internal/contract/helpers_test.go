package contract

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	testOwner       = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testEscrow      = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	testCreator     = common.HexToAddress("0x0000000000000000000000000000000000000001")
	testBeneficiary = common.HexToAddress("0x0000000000000000000000000000000000000002")
	testDonor1      = common.HexToAddress("0x0000000000000000000000000000000000000011")
	testDonor2      = common.HexToAddress("0x0000000000000000000000000000000000000012")
	testDonor3      = common.HexToAddress("0x0000000000000000000000000000000000000013")
)

// fakeClock 可推进的测试时钟
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

// testBank 测试账本，可注入一次性的转账失败
type testBank struct {
	balances map[common.Address]*big.Int
	failNext error
}

func newTestBank() *testBank {
	return &testBank{balances: make(map[common.Address]*big.Int)}
}

func (b *testBank) Transfer(from, to common.Address, amount *big.Int) error {
	if b.failNext != nil {
		err := b.failNext
		b.failNext = nil
		return err
	}

	src := b.balances[from]
	if src == nil || src.Cmp(amount) < 0 {
		return errInsufficient
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

func (b *testBank) mint(addr common.Address, amount int64) {
	bal := b.balances[addr]
	if bal == nil {
		bal = new(big.Int)
		b.balances[addr] = bal
	}
	bal.Add(bal, big.NewInt(amount))
}

func (b *testBank) balanceOf(addr common.Address) *big.Int {
	bal := b.balances[addr]
	if bal == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(bal)
}

// recordSink 收集状态机发布的事件
type recordSink struct {
	events []Event
}

func (s *recordSink) Publish(event Event) {
	s.events = append(s.events, event)
}

func (s *recordSink) last() Event {
	return s.events[len(s.events)-1]
}

// testEnv 一套完整的测试装置：状态机、时钟、账本、事件接收器
type testEnv struct {
	factory *CampaignFactory
	clock   *fakeClock
	bank    *testBank
	sink    *recordSink
}

func newTestEnv() *testEnv {
	clock := newFakeClock()
	bank := newTestBank()
	sink := &recordSink{}

	// 给测试捐款人充值
	for _, donor := range []common.Address{testDonor1, testDonor2, testDonor3} {
		bank.mint(donor, 1000)
	}

	return &testEnv{
		factory: NewCampaignFactory(Config{
			Owner:  testOwner,
			Escrow: testEscrow,
			Bank:   bank,
			Sink:   sink,
			Now:    clock.Now,
		}),
		clock: clock,
		bank:  bank,
		sink:  sink,
	}
}

// createCampaign 以默认参数创建一个活动：目标10、时长30天
func (e *testEnv) createCampaign(externalID string) common.Hash {
	key, err := e.factory.CreateCampaign(
		testCreator, testBeneficiary,
		"Clean Water", "Build wells",
		big.NewInt(10), 30, externalID,
	)
	if err != nil {
		panic(err)
	}
	return key
}

var errInsufficient = errBank("insufficient funds")

type errBank string

func (e errBank) Error() string { return string(e) }
