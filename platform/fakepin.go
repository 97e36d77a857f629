// platform/fakepin.go
package platform

import (
	"sync"

	"tmp007-go/gpio"
)

// FakePin implements gpio.IRQPin for host runs and tests. Set drives the
// level and calls the IRQ handler synchronously on a matching edge.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	pull    gpio.Pull
	irqEdge gpio.Edge
	irqFunc func()
}

func NewFakePin(n int) *FakePin { return &FakePin{number: n} }

func (p *FakePin) ConfigureInput(pull gpio.Pull) error {
	p.mu.Lock()
	p.pull = pull
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	old := p.level
	p.level = level
	irq := p.irqFunc
	want := irqWanted(p.irqEdge, edgeFrom(old, level))
	p.mu.Unlock()
	if want && irq != nil {
		irq()
	}
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

func (p *FakePin) Number() int { return p.number }

func (p *FakePin) SetIRQ(edge gpio.Edge, handler func()) error {
	p.mu.Lock()
	p.irqEdge = edge
	p.irqFunc = handler
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.irqEdge = gpio.EdgeNone
	p.irqFunc = nil
	p.mu.Unlock()
	return nil
}

func edgeFrom(old, new bool) gpio.Edge {
	switch {
	case !old && new:
		return gpio.EdgeRising
	case old && !new:
		return gpio.EdgeFalling
	default:
		return gpio.EdgeNone
	}
}

func irqWanted(cfg, seen gpio.Edge) bool {
	switch cfg {
	case gpio.EdgeNone:
		return false
	case gpio.EdgeBoth:
		return seen == gpio.EdgeRising || seen == gpio.EdgeFalling
	default:
		return cfg == seen
	}
}
