package main

import (
	"errors"
	"fmt"

	"tinygo.org/x/drivers"

	"tmp007-go/config"
	"tmp007-go/gpio"
	"tmp007-go/platform"
)

// backend is the bus and GPIO port one sensor instance runs on.
type backend struct {
	bus   drivers.I2C
	port  *gpio.Port
	sim   *platform.SimTMP007 // nil on hardware
	close func() error
}

func (b *backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

func openBackend(cfg config.Config) (*backend, error) {
	switch cfg.GPIO.Backend {
	case config.BackendSim:
		pin := platform.NewFakePin(cfg.GPIO.Pin)
		sim := platform.NewSimTMP007(cfg.I2C.Address, pin, cfg.Thresholds.Scale)
		port := gpio.NewPort(cfg.GPIO.Device, []gpio.IRQPin{pin}, gpio.WithDebounce(cfg.GPIO.Debounce()))
		return &backend{bus: sim, port: port, sim: sim}, nil

	case config.BackendRPIO:
		bus, err := platform.OpenI2C(cfg.I2C.Bus)
		if err != nil {
			return nil, fmt.Errorf("open i2c %s: %w", cfg.I2C.Bus, err)
		}
		pins, closeGPIO, err := platform.OpenGPIO([]int{cfg.GPIO.Pin}, cfg.GPIO.Poll())
		if err != nil {
			_ = bus.Close()
			return nil, fmt.Errorf("open gpio: %w", err)
		}
		port := gpio.NewPort(cfg.GPIO.Device, pins, gpio.WithDebounce(cfg.GPIO.Debounce()))
		return &backend{
			bus:   bus,
			port:  port,
			close: func() error { return errors.Join(closeGPIO(), bus.Close()) },
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.GPIO.Backend)
	}
}
