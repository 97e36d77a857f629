// platform/backend_linux.go
//go:build linux

package platform

import (
	"fmt"
	"sync"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
	"gobot.io/x/gobot/sysfs"

	"tmp007-go/gpio"
)

// ----------------------------- I²C (sysfs) -----------------------------------

// i2cFile is the subset of gobot's sysfs I²C device used here.
type i2cFile interface {
	SetAddress(address int) error
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
}

// SysfsI2C adapts /dev/i2c-N to drivers.I2C. Write and read are separate
// transfers; TMP007 keeps its register pointer across the stop.
type SysfsI2C struct {
	mu   sync.Mutex
	dev  i2cFile
	addr int
}

// OpenI2C opens a Linux I²C character device such as /dev/i2c-1.
func OpenI2C(path string) (I2CBus, error) {
	dev, err := sysfs.NewI2cDevice(path)
	if err != nil {
		return nil, fmt.Errorf("open I2C device: %w", err)
	}
	return &SysfsI2C{dev: dev, addr: -1}, nil
}

func (s *SysfsI2C) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(addr) != s.addr {
		if err := s.dev.SetAddress(int(addr)); err != nil {
			return fmt.Errorf("set device address: %w", err)
		}
		s.addr = int(addr)
	}
	if len(w) > 0 {
		n, err := s.dev.Write(w)
		if err != nil {
			return fmt.Errorf("write: %w", err)
		}
		if n != len(w) {
			return fmt.Errorf("expected to write %d bytes, wrote %d", len(w), n)
		}
	}
	if len(r) > 0 {
		n, err := s.dev.Read(r)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if n != len(r) {
			return fmt.Errorf("expected to read %d bytes, read %d", len(r), n)
		}
	}
	return nil
}

func (s *SysfsI2C) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.Close()
}

// ----------------------------- GPIO (rpio) -----------------------------------

// RPIOPin is a BCM2835 GPIO line. The SoC latches edges in its event
// detect register; a poll goroutine turns latched edges into IRQ calls.
type RPIOPin struct {
	pin  rpio.Pin
	poll time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

// OpenGPIO maps the GPIO block and returns the requested lines. The returned
// func unmaps it.
func OpenGPIO(pins []int, poll time.Duration) ([]gpio.IRQPin, func() error, error) {
	if err := rpio.Open(); err != nil {
		return nil, nil, fmt.Errorf("open GPIO: %w", err)
	}
	if poll <= 0 {
		poll = time.Millisecond
	}
	out := make([]gpio.IRQPin, 0, len(pins))
	for _, n := range pins {
		out = append(out, &RPIOPin{pin: rpio.Pin(n), poll: poll})
	}
	return out, rpio.Close, nil
}

func (p *RPIOPin) ConfigureInput(pull gpio.Pull) error {
	p.pin.Input()
	switch pull {
	case gpio.PullUp:
		p.pin.PullUp()
	case gpio.PullDown:
		p.pin.PullDown()
	default:
		p.pin.PullOff()
	}
	return nil
}

func (p *RPIOPin) Get() bool { return p.pin.Read() == rpio.High }

func (p *RPIOPin) Number() int { return int(p.pin) }

func (p *RPIOPin) SetIRQ(edge gpio.Edge, handler func()) error {
	_ = p.ClearIRQ()
	p.pin.Detect(rpioEdge(edge))

	stop := make(chan struct{})
	p.mu.Lock()
	p.stop = stop
	p.mu.Unlock()

	go func() {
		t := time.NewTicker(p.poll)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if p.pin.EdgeDetected() {
					handler()
				}
			}
		}
	}()
	return nil
}

func (p *RPIOPin) ClearIRQ() error {
	p.mu.Lock()
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	p.mu.Unlock()
	p.pin.Detect(rpio.NoEdge)
	return nil
}

func rpioEdge(e gpio.Edge) rpio.Edge {
	switch e {
	case gpio.EdgeRising:
		return rpio.RiseEdge
	case gpio.EdgeFalling:
		return rpio.FallEdge
	case gpio.EdgeBoth:
		return rpio.AnyEdge
	default:
		return rpio.NoEdge
	}
}
