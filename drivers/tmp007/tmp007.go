// Package tmp007 drives a TI TMP007 infrared thermopile sensor and its ALERT
// interrupt. Trigger handling is split in two halves:
//
//	gpio callback (interrupt context): mask the line, schedule deferred work
//	deferred handler (worker context): read STATUS, dispatch, unmask the line
//
// The deferred half runs on a Deferral chosen at construction: its own
// worker goroutine, or a job on a shared workqueue.Queue.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when both
// w and r are provided, without releasing the bus.
package tmp007

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"tinygo.org/x/drivers"

	"tmp007-go/gpio"
)

// Channel selects a sensor quantity.
type Channel uint8

const (
	ChanTemp    Channel = iota // object temperature
	ChanDieTemp                // local die temperature
	ChanVoltage                // thermopile voltage
)

// Attribute selects a channel property for SetAttribute.
type Attribute uint8

const (
	AttrSamplingFrequency Attribute = iota
	AttrLowerThresh
	AttrUpperThresh
	AttrSlopeThresh
)

// TriggerType is the event class a Handler is registered for.
type TriggerType uint8

const (
	TrigTimer TriggerType = iota
	TrigDataReady
	TrigDelta
	TrigThreshold
)

func (t TriggerType) String() string {
	switch t {
	case TrigTimer:
		return "timer"
	case TrigDataReady:
		return "data_ready"
	case TrigDelta:
		return "delta"
	case TrigThreshold:
		return "threshold"
	default:
		return "unknown"
	}
}

// Trigger describes what a handler was registered for. It is handed back
// unchanged on every dispatch.
type Trigger struct {
	Type TriggerType
	Chan Channel
}

// Handler is called from the deferred context, never from interrupt context.
type Handler func(d *Device, t Trigger)

// Resolver looks up a bound GPIO controller by name.
type Resolver interface {
	Resolve(name string) (gpio.Controller, bool)
}

// Observer receives trigger-path events. All methods must be cheap; Interrupt
// is called from interrupt context.
type Observer interface {
	Interrupt()
	Dispatched(t TriggerType)
	StatusReadFailed()
}

type nopObserver struct{}

func (nopObserver) Interrupt()             {}
func (nopObserver) Dispatched(TriggerType) {}
func (nopObserver) StatusReadFailed()      {}

// Config is the build-time wiring for one sensor instance.
type Config struct {
	Address uint16

	// GPIODevName names the controller the ALERT line is wired to;
	// GPIOPin is the line number on it.
	GPIODevName string
	GPIOPin     int

	// ThresholdScale defaults to DefaultThresholdScale if not positive.
	ThresholdScale int64

	Deferral Deferral
	Resolver Resolver
	Observer Observer // optional
	Logger   *zerolog.Logger
}

// DefaultConfig provides minimal defaults; caller must set the GPIO binding
// and Deferral before enabling interrupts.
func DefaultConfig() Config {
	return Config{
		Address:        AddressDefault,
		ThresholdScale: DefaultThresholdScale,
	}
}

var (
	ErrNoDeferral = errors.New("tmp007: no deferral mechanism")
	ErrNoResolver = errors.New("tmp007: no gpio resolver")
	ErrBadPin     = errors.New("tmp007: gpio pin out of range")
)

// Validate checks the fields InitInterrupt depends on.
func (c Config) Validate() error {
	if c.Address == 0 {
		return errors.New("Address must be non-zero (use AddressDefault)")
	}
	if c.Deferral == nil {
		return ErrNoDeferral
	}
	if c.Resolver == nil {
		return ErrNoResolver
	}
	if c.GPIOPin < 0 || c.GPIOPin > 31 {
		return ErrBadPin
	}
	if c.ThresholdScale < 0 {
		return errors.New("ThresholdScale must not be negative")
	}
	return nil
}

// Device is one TMP007 and its trigger state.
type Device struct {
	bus  drivers.I2C
	addr uint16

	gpioName string
	pin      int
	thScale  int64
	deferral Deferral
	resolver Resolver
	obs      Observer
	log      zerolog.Logger

	// Guards the buffers below; the deferred handler and callers share the bus.
	busMu sync.Mutex
	w     [3]byte
	r     [2]byte

	sample int16

	// Guards gpio and the handler/trigger pairs. Registration also masks
	// the interrupt line around updates.
	mu          sync.Mutex
	gpio        gpio.Controller
	cb          gpio.Callback
	drdyHandler Handler
	drdyTrigger Trigger
	thHandler   Handler
	thTrigger   Trigger
}

// New constructs a Device. It does not touch the bus.
func New(bus drivers.I2C, cfg Config) *Device {
	addr := cfg.Address
	if addr == 0 {
		addr = AddressDefault
	}
	scale := cfg.ThresholdScale
	if scale <= 0 {
		scale = DefaultThresholdScale
	}
	obs := cfg.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("driver", "tmp007").Logger()
	}
	return &Device{
		bus:      bus,
		addr:     addr,
		gpioName: cfg.GPIODevName,
		pin:      cfg.GPIOPin,
		thScale:  scale,
		deferral: cfg.Deferral,
		resolver: cfg.Resolver,
		obs:      obs,
		log:      log,
	}
}

func (d *Device) Address() uint16 { return d.addr }
