package tmp007

import (
	"context"

	"tmp007-go/errcode"
	"tmp007-go/gpio"
)

// alertFlags: input, level-triggered, active-high, debounced.
const alertFlags = gpio.FlagDirIn | gpio.FlagInt | gpio.FlagIntLevel |
	gpio.FlagIntActiveHigh | gpio.FlagIntDebounce

// gpioCallback runs in interrupt context: no bus I/O here.
func (d *Device) gpioCallback(port gpio.Controller, _ *gpio.Callback, _ uint32) {
	_ = port.DisableCallback(d.pin)
	d.deferral.Schedule()
	d.obs.Interrupt()
}

// process is the deferred handler. A failed status read leaves the line
// masked; the next SetTrigger re-arms it.
func (d *Device) process() {
	status, err := d.readReg(RegStatus)
	if err != nil {
		d.log.Debug().Err(err).Msg("failed to read status")
		d.obs.StatusReadFailed()
		return
	}

	d.mu.Lock()
	port := d.gpio
	drdy, drdyTrig := d.drdyHandler, d.drdyTrigger
	th, thTrig := d.thHandler, d.thTrigger
	d.mu.Unlock()

	if status&StatusDataReady != 0 && drdy != nil {
		d.obs.Dispatched(TrigDataReady)
		drdy(d, drdyTrig)
	}
	if status&StatusTObjTh != 0 && th != nil {
		d.obs.Dispatched(TrigThreshold)
		th(d, thTrig)
	}

	if port != nil {
		_ = port.EnableCallback(d.pin)
	}
}

// SetTrigger installs h for t.Type, or clears it when h is nil. Only
// TrigDataReady and TrigThreshold are recognised; other types are accepted
// and ignored. It never fails.
func (d *Device) SetTrigger(t Trigger, h Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.gpio != nil {
		_ = d.gpio.DisableCallback(d.pin)
	}

	switch t.Type {
	case TrigDataReady:
		d.drdyHandler = h
		d.drdyTrigger = t
	case TrigThreshold:
		d.thHandler = h
		d.thTrigger = t
	}

	if d.gpio != nil {
		_ = d.gpio.EnableCallback(d.pin)
	}
	return nil
}

// InitInterrupt enables the ALERT output, binds the GPIO line and starts the
// deferral mechanism. Call once during bring-up; ctx bounds the worker.
func (d *Device) InitInterrupt(ctx context.Context) error {
	if d.deferral == nil || d.resolver == nil {
		return &errcode.E{C: errcode.InvalidConfig, Op: "init_interrupt", Err: ErrNoDeferral}
	}

	if err := d.updateReg(RegConfig, ConfigAlertEn, ConfigAlertEn); err != nil {
		d.log.Debug().Err(err).Msg("failed to enable interrupt pin")
		return errcode.Wrap(errcode.IOError, "init_interrupt", err)
	}

	port, ok := d.resolver.Resolve(d.gpioName)
	if !ok {
		d.log.Debug().Str("gpio", d.gpioName).Msg("failed to get gpio device")
		return &errcode.E{C: errcode.InvalidConfig, Op: "init_interrupt", Msg: d.gpioName}
	}

	if err := port.ConfigurePin(d.pin, alertFlags); err != nil {
		d.log.Debug().Err(err).Int("pin", d.pin).Msg("failed to configure alert pin")
	}

	d.mu.Lock()
	d.gpio = port
	gpio.InitCallback(&d.cb, d.gpioCallback, gpio.Bit(d.pin))
	d.mu.Unlock()

	if err := port.AddCallback(&d.cb); err != nil {
		d.log.Debug().Err(err).Msg("failed to set gpio callback")
		return errcode.Wrap(errcode.IOError, "init_interrupt", err)
	}

	d.deferral.Start(ctx, d.process)
	return nil
}

// ReleaseInterrupt masks the ALERT line and detaches the driver's callback.
// Registered handlers are kept; InitInterrupt binds the line again.
func (d *Device) ReleaseInterrupt() error {
	d.mu.Lock()
	port := d.gpio
	d.gpio = nil
	d.mu.Unlock()
	if port == nil {
		return nil
	}

	_ = port.DisableCallback(d.pin)
	if err := port.RemoveCallback(&d.cb); err != nil {
		d.log.Debug().Err(err).Msg("failed to remove gpio callback")
		return errcode.Wrap(errcode.IOError, "release_interrupt", err)
	}
	return nil
}
