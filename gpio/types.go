// gpio/types.go
package gpio

import "errors"

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Edge selection for IRQ.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}

// Pin is the input side of a GPIO line.
type Pin interface {
	ConfigureInput(pull Pull) error
	Get() bool
	Number() int
}

// IRQPin extends Pin with edge interrupts. The handler runs in interrupt
// context and must not block.
type IRQPin interface {
	Pin
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

// Flags select pin direction and interrupt semantics for ConfigurePin.
type Flags uint32

const (
	FlagDirIn Flags = 1 << iota
	FlagInt
	FlagIntEdge
	FlagIntLevel
	FlagIntActiveLow
	FlagIntActiveHigh
	FlagIntDoubleEdge
	FlagIntDebounce
	FlagPullUp
	FlagPullDown
)

func (f Flags) Has(flag Flags) bool { return f&flag == flag }

// CallbackHandler is invoked from interrupt context with the controller that
// raised it, the descriptor it was registered with, and the pin bits that fired.
type CallbackHandler func(port Controller, cb *Callback, pins uint32)

// Callback describes one interrupt consumer scoped to a pin bit-mask.
type Callback struct {
	Handler CallbackHandler
	PinMask uint32
}

// InitCallback fills a callback descriptor.
func InitCallback(cb *Callback, h CallbackHandler, mask uint32) {
	cb.Handler = h
	cb.PinMask = mask
}

// Bit returns the mask bit for pin n.
func Bit(n int) uint32 { return 1 << uint(n) }

// Controller is a GPIO port that dispatches pin interrupts to callbacks.
// Pin callbacks start disabled after ConfigurePin.
type Controller interface {
	ConfigurePin(pin int, flags Flags) error
	AddCallback(cb *Callback) error
	RemoveCallback(cb *Callback) error
	EnableCallback(pin int) error
	DisableCallback(pin int) error
}

var (
	ErrUnknownPin      = errors.New("gpio: unknown pin")
	ErrInvalidFlags    = errors.New("gpio: invalid flags")
	ErrInvalidCallback = errors.New("gpio: invalid callback")
)
