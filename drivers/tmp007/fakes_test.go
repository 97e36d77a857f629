package tmp007

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tmp007-go/gpio"
)

var errNack = errors.New("i2c: nack")

type regWrite struct {
	Reg byte
	Val uint16
}

// fakeBus is a register file speaking the TMP007 word protocol.
type fakeBus struct {
	mu       sync.Mutex
	regs     map[byte]uint16
	readErr  map[byte]error
	writeErr map[byte]error
	writes   []regWrite
	reads    []byte
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		regs:     map[byte]uint16{},
		readErr:  map[byte]error{},
		writeErr: map[byte]error{},
	}
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if addr != AddressDefault {
		return errNack
	}
	if len(w) == 0 {
		return fmt.Errorf("no register pointer")
	}
	reg := w[0]
	if len(w) == 3 {
		if err := b.writeErr[reg]; err != nil {
			return err
		}
		v := uint16(w[1])<<8 | uint16(w[2])
		b.regs[reg] = v
		b.writes = append(b.writes, regWrite{reg, v})
	}
	if len(r) == 2 {
		if err := b.readErr[reg]; err != nil {
			return err
		}
		v := b.regs[reg]
		r[0], r[1] = byte(v>>8), byte(v)
		b.reads = append(b.reads, reg)
	}
	return nil
}

func (b *fakeBus) writeLog() []regWrite {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]regWrite(nil), b.writes...)
}

func (b *fakeBus) readLog() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.reads...)
}

// fakeGPIO records controller calls in order.
type fakeGPIO struct {
	mu        sync.Mutex
	ops       []string
	cbs       []*gpio.Callback
	addErr    error
	configErr error
}

func (g *fakeGPIO) record(op string) {
	g.mu.Lock()
	g.ops = append(g.ops, op)
	g.mu.Unlock()
}

func (g *fakeGPIO) ConfigurePin(pin int, flags gpio.Flags) error {
	g.record(fmt.Sprintf("configure:%d:%#x", pin, uint32(flags)))
	return g.configErr
}

func (g *fakeGPIO) AddCallback(cb *gpio.Callback) error {
	g.record(fmt.Sprintf("add:%#x", cb.PinMask))
	if g.addErr != nil {
		return g.addErr
	}
	g.mu.Lock()
	g.cbs = append(g.cbs, cb)
	g.mu.Unlock()
	return nil
}

func (g *fakeGPIO) RemoveCallback(*gpio.Callback) error { g.record("remove"); return nil }
func (g *fakeGPIO) EnableCallback(pin int) error        { g.record(fmt.Sprintf("enable:%d", pin)); return nil }
func (g *fakeGPIO) DisableCallback(pin int) error       { g.record(fmt.Sprintf("disable:%d", pin)); return nil }

func (g *fakeGPIO) calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.ops...)
}

func (g *fakeGPIO) reset() {
	g.mu.Lock()
	g.ops = nil
	g.mu.Unlock()
}

// interrupt invokes every registered callback as the controller would.
func (g *fakeGPIO) interrupt(pin int) {
	g.mu.Lock()
	cbs := append([]*gpio.Callback(nil), g.cbs...)
	g.mu.Unlock()
	for _, cb := range cbs {
		if cb.PinMask&gpio.Bit(pin) != 0 {
			cb.Handler(g, cb, gpio.Bit(pin))
		}
	}
}

type fakeResolver map[string]gpio.Controller

func (r fakeResolver) Resolve(name string) (gpio.Controller, bool) {
	c, ok := r[name]
	return c, ok
}

// fakeDeferral counts schedules and keeps the bound handler for manual runs.
type fakeDeferral struct {
	mu        sync.Mutex
	fn        func()
	scheduled int
}

func (f *fakeDeferral) Start(_ context.Context, fn func()) { f.mu.Lock(); f.fn = fn; f.mu.Unlock() }
func (f *fakeDeferral) Schedule()                          { f.mu.Lock(); f.scheduled++; f.mu.Unlock() }

type countingObserver struct {
	mu         sync.Mutex
	interrupts int
	dispatched []TriggerType
	failures   int
}

func (o *countingObserver) Interrupt() { o.mu.Lock(); o.interrupts++; o.mu.Unlock() }
func (o *countingObserver) Dispatched(t TriggerType) {
	o.mu.Lock()
	o.dispatched = append(o.dispatched, t)
	o.mu.Unlock()
}
func (o *countingObserver) StatusReadFailed() { o.mu.Lock(); o.failures++; o.mu.Unlock() }

const testPin = 5

type rig struct {
	bus  *fakeBus
	gpio *fakeGPIO
	def  *fakeDeferral
	obs  *countingObserver
	dev  *Device
}

func newRig() *rig {
	r := &rig{
		bus:  newFakeBus(),
		gpio: &fakeGPIO{},
		def:  &fakeDeferral{},
		obs:  &countingObserver{},
	}
	cfg := DefaultConfig()
	cfg.GPIODevName = "GPIO_0"
	cfg.GPIOPin = testPin
	cfg.Deferral = r.def
	cfg.Resolver = fakeResolver{"GPIO_0": r.gpio}
	cfg.Observer = r.obs
	r.dev = New(r.bus, cfg)
	return r
}
