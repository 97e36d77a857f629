// gpio/port.go
package gpio

import (
	"sync"
	"sync/atomic"
	"time"
)

// Port is a Controller over a set of IRQ-capable pins. Level-triggered
// interrupts are emulated on edge-only pins: re-enabling a callback while the
// line is still at its active level fires it again.
type Port struct {
	name     string
	debounce time.Duration

	mu    sync.Mutex
	lines map[int]*line
	cbs   []*Callback

	drops uint32 // interrupts seen while the pin callback was disabled
}

type line struct {
	pin     IRQPin
	flags   Flags
	enabled atomic.Bool

	mu        sync.Mutex
	lastEvent time.Time
	recheck   *time.Timer
}

// Option tweaks a Port at construction.
type Option func(*Port)

// WithDebounce sets the window used for pins configured with FlagIntDebounce.
func WithDebounce(d time.Duration) Option {
	return func(p *Port) { p.debounce = d }
}

func NewPort(name string, pins []IRQPin, opts ...Option) *Port {
	p := &Port{
		name:     name,
		debounce: time.Millisecond,
		lines:    make(map[int]*line, len(pins)),
	}
	for _, o := range opts {
		o(p)
	}
	for _, pin := range pins {
		p.lines[pin.Number()] = &line{pin: pin}
	}
	return p
}

func (p *Port) Name() string { return p.name }

func (p *Port) line(n int) (*line, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.lines[n]
	if !ok {
		return nil, ErrUnknownPin
	}
	return l, nil
}

func (p *Port) ConfigurePin(n int, flags Flags) error {
	l, err := p.line(n)
	if err != nil {
		return err
	}
	if flags.Has(FlagIntActiveHigh|FlagIntActiveLow) ||
		flags.Has(FlagIntEdge|FlagIntLevel) ||
		flags.Has(FlagPullUp|FlagPullDown) {
		return ErrInvalidFlags
	}
	if flags.Has(FlagInt) && !flags.Has(FlagDirIn) {
		return ErrInvalidFlags
	}

	pull := PullNone
	switch {
	case flags.Has(FlagPullUp):
		pull = PullUp
	case flags.Has(FlagPullDown):
		pull = PullDown
	}
	if err := l.pin.ConfigureInput(pull); err != nil {
		return err
	}

	l.enabled.Store(false)
	l.mu.Lock()
	l.flags = flags
	l.mu.Unlock()

	if !flags.Has(FlagInt) {
		return l.pin.ClearIRQ()
	}
	return l.pin.SetIRQ(irqEdge(flags), func() { p.isr(l) })
}

// irqEdge picks the physical edge that starts an interrupt.
func irqEdge(flags Flags) Edge {
	switch {
	case flags.Has(FlagIntDoubleEdge):
		return EdgeBoth
	case flags.Has(FlagIntActiveLow):
		return EdgeFalling
	default:
		return EdgeRising
	}
}

func (p *Port) AddCallback(cb *Callback) error {
	if cb == nil || cb.Handler == nil || cb.PinMask == 0 {
		return ErrInvalidCallback
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.cbs {
		if c == cb {
			return nil
		}
	}
	p.cbs = append(p.cbs, cb)
	return nil
}

func (p *Port) RemoveCallback(cb *Callback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, c := range p.cbs {
		if c == cb {
			p.cbs = append(p.cbs[:i], p.cbs[i+1:]...)
			return nil
		}
	}
	return ErrInvalidCallback
}

func (p *Port) EnableCallback(n int) error {
	l, err := p.line(n)
	if err != nil {
		return err
	}
	l.enabled.Store(true)
	if l.levelActive() {
		p.fire(l)
	}
	return nil
}

func (p *Port) DisableCallback(n int) error {
	l, err := p.line(n)
	if err != nil {
		return err
	}
	l.enabled.Store(false)
	return nil
}

// Drops reports interrupts discarded because the pin callback was disabled.
func (p *Port) Drops() uint32 { return atomic.LoadUint32(&p.drops) }

// isr runs in the pin's interrupt context.
func (p *Port) isr(l *line) {
	if !l.enabled.Load() {
		atomic.AddUint32(&p.drops, 1)
		return
	}

	l.mu.Lock()
	flags := l.flags
	now := time.Now()
	if flags.Has(FlagIntDebounce) && p.debounce > 0 && !l.lastEvent.IsZero() {
		if wait := p.debounce - now.Sub(l.lastEvent); wait > 0 {
			// Level lines are re-sampled once the window closes; edge lines drop it.
			if flags.Has(FlagIntLevel) && l.recheck == nil {
				l.recheck = time.AfterFunc(wait, func() { p.recheck(l) })
			}
			l.mu.Unlock()
			return
		}
	}
	l.lastEvent = now
	l.mu.Unlock()

	p.fire(l)
}

func (p *Port) recheck(l *line) {
	l.mu.Lock()
	l.recheck = nil
	l.lastEvent = time.Now()
	l.mu.Unlock()
	if l.enabled.Load() && l.levelActive() {
		p.fire(l)
	}
}

func (l *line) levelActive() bool {
	l.mu.Lock()
	flags := l.flags
	l.mu.Unlock()
	if !flags.Has(FlagInt) || !flags.Has(FlagIntLevel) {
		return false
	}
	v := l.pin.Get()
	if flags.Has(FlagIntActiveLow) {
		return !v
	}
	return v
}

// fire dispatches to every callback whose mask covers the pin. Callbacks are
// snapshotted so handlers may call back into the Port.
func (p *Port) fire(l *line) {
	bit := Bit(l.pin.Number())
	p.mu.Lock()
	cbs := make([]*Callback, 0, len(p.cbs))
	for _, cb := range p.cbs {
		if cb.PinMask&bit != 0 {
			cbs = append(cbs, cb)
		}
	}
	p.mu.Unlock()

	for _, cb := range cbs {
		cb.Handler(p, cb, bit)
	}
}
