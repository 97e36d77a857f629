package tmp007_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"

	"tmp007-go/drivers/tmp007"
	"tmp007-go/gpio"
	"tmp007-go/platform"
	"tmp007-go/registry"
	"tmp007-go/workqueue"
)

const alertPin = 17

type harness struct {
	sim    *platform.SimTMP007
	dev    *tmp007.Device
	events chan string
}

func newHarness(t *testing.T, ctx context.Context, def tmp007.Deferral, opts ...gpio.Option) *harness {
	t.Helper()
	pin := platform.NewFakePin(alertPin)
	port := gpio.NewPort("GPIO_0", []gpio.IRQPin{pin}, opts...)
	devices := registry.New()
	devices.Bind("GPIO_0", port)

	sim := platform.NewSimTMP007(0, pin, tmp007.ThresholdLSB)
	cfg := tmp007.DefaultConfig()
	cfg.GPIODevName = "GPIO_0"
	cfg.GPIOPin = alertPin
	cfg.ThresholdScale = tmp007.ThresholdLSB
	cfg.Deferral = def
	cfg.Resolver = devices
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	h := &harness{sim: sim, dev: tmp007.New(sim, cfg), events: make(chan string, 32)}
	if err := h.dev.InitInterrupt(ctx); err != nil {
		t.Fatalf("InitInterrupt: %v", err)
	}
	if err := h.dev.SetAttribute(tmp007.ChanTemp, tmp007.AttrUpperThresh, tmp007.Value{Val1: 30}); err != nil {
		t.Fatalf("SetAttribute upper: %v", err)
	}
	if err := h.dev.SetAttribute(tmp007.ChanTemp, tmp007.AttrLowerThresh, tmp007.Value{Val1: 10}); err != nil {
		t.Fatalf("SetAttribute lower: %v", err)
	}
	h.register()
	return h
}

func (h *harness) register() {
	_ = h.dev.SetTrigger(tmp007.Trigger{Type: tmp007.TrigDataReady, Chan: tmp007.ChanTemp}, func(d *tmp007.Device, _ tmp007.Trigger) {
		if err := d.SampleFetch(); err != nil {
			h.events <- "drdy:" + err.Error()
			return
		}
		v, _ := d.ChannelGet(tmp007.ChanTemp)
		h.events <- fmt.Sprintf("drdy:%d", v.Val1)
	})
	_ = h.dev.SetTrigger(tmp007.Trigger{Type: tmp007.TrigThreshold, Chan: tmp007.ChanTemp}, func(*tmp007.Device, tmp007.Trigger) {
		h.events <- "th"
	})
}

func (h *harness) expect(t *testing.T, want ...string) {
	t.Helper()
	for _, w := range want {
		select {
		case got := <-h.events:
			if got != w {
				t.Fatalf("event = %q, want %q", got, w)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("timeout waiting for %q", w)
		}
	}
}

func (h *harness) expectNone(t *testing.T) {
	t.Helper()
	select {
	case got := <-h.events:
		t.Fatalf("unexpected event %q", got)
	case <-time.After(30 * time.Millisecond):
	}
}

func celsius(c int) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(c)*physic.Kelvin
}

func TestTriggersOnOwnWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := newHarness(t, ctx, tmp007.NewOwnWorker())

	h.sim.Sample(celsius(25))
	h.expect(t, "drdy:25")
	h.expectNone(t)

	h.sim.Sample(celsius(31))
	h.expect(t, "drdy:31", "th")

	h.sim.Sample(celsius(5))
	h.expect(t, "drdy:5", "th")
}

func TestTriggersOnGlobalWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := workqueue.New(8)
	q.Start(ctx)
	h := newHarness(t, ctx, tmp007.NewGlobalWorker(q), gpio.WithDebounce(0))

	for _, c := range []int{20, 21, 22} {
		h.sim.Sample(celsius(c))
		h.expect(t, fmt.Sprintf("drdy:%d", c))
	}
}

func TestStatusReadFailureMasksUntilReregistered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := newHarness(t, ctx, tmp007.NewOwnWorker())

	h.sim.FailReads(tmp007.RegStatus, errors.New("bus stuck"))
	h.sim.Sample(celsius(31))
	h.expectNone(t)

	h.sim.FailReads(tmp007.RegStatus, nil)
	h.expectNone(t) // line still masked

	h.register()
	h.expect(t, "drdy:31", "th")
}
