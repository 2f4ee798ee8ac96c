package output

import (
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
)

// EventOutput 事件外发接口。事件管道在落库之后把事件推给外发器，
// 供下游系统（通知、索引、风控）消费。
type EventOutput interface {
	WriteEvent(event contract.Event) error
	Close() error
}
