package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"

	"tmp007-go/config"
	"tmp007-go/drivers/tmp007"
	"tmp007-go/errcode"
	"tmp007-go/events"
	"tmp007-go/logging"
	"tmp007-go/metrics"
	"tmp007-go/platform"
	"tmp007-go/registry"
	"tmp007-go/workqueue"
)

func runDaemon(ctx context.Context, cfg config.Config) error {
	log := logging.Component("tmp007d")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	sensor := metrics.New(reg)

	hw, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := hw.Close(); err != nil {
			log.Warn().Err(err).Msg("closing backend")
		}
	}()

	gpios := registry.New()
	gpios.Bind(cfg.GPIO.Device, hw.port)

	deferral, err := newDeferral(ctx, cfg.Trigger)
	if err != nil {
		return err
	}

	drvLog := logging.Component("driver")
	dev := tmp007.New(hw.bus, tmp007.Config{
		Address:        cfg.I2C.Address,
		GPIODevName:    cfg.GPIO.Device,
		GPIOPin:        cfg.GPIO.Pin,
		ThresholdScale: cfg.Thresholds.Scale,
		Deferral:       deferral,
		Resolver:       gpios,
		Observer:       sensor,
		Logger:         &drvLog,
	})

	if err := programThresholds(dev, cfg.Thresholds); err != nil {
		return err
	}

	bus := events.New(16)
	topics := topicsFor(dev.Address())
	go consume(ctx, bus, topics, sensor, log)

	if hw.sim != nil {
		go simulate(ctx, hw.sim, cfg, log)
	}

	if cfg.Trigger.Mode == config.ModeNone {
		go poll(ctx, dev, bus, topics, cfg.Sim.Interval(), log)
	} else {
		if err := dev.InitInterrupt(ctx); err != nil {
			log.Error().Err(err).Str("code", string(errcode.Of(err))).Msg("failed to initialize interrupt")
			return err
		}
		defer func() {
			if err := dev.ReleaseInterrupt(); err != nil {
				log.Warn().Err(err).Msg("releasing interrupt")
			}
		}()
		if err := registerTriggers(dev, bus, topics, log); err != nil {
			return err
		}
		log.Info().
			Str("mode", cfg.Trigger.Mode).
			Str("gpio", cfg.GPIO.Device).
			Int("pin", cfg.GPIO.Pin).
			Msg("alert interrupt armed")
	}

	return serveMetrics(ctx, cfg.Metrics.Listen, reg, log)
}

func newDeferral(ctx context.Context, t config.Trigger) (tmp007.Deferral, error) {
	switch t.Mode {
	case config.ModeNone:
		return nil, nil
	case config.ModeOwnThread:
		return tmp007.NewOwnWorker(), nil
	case config.ModeGlobalThread:
		q := workqueue.New(t.QueueSize)
		q.Start(ctx)
		return tmp007.NewGlobalWorker(q), nil
	default:
		return nil, config.ErrUnknownMode
	}
}

func programThresholds(dev *tmp007.Device, th config.Thresholds) error {
	limits := []struct {
		attr  tmp007.Attribute
		value func() (physic.Temperature, bool, error)
	}{
		{tmp007.AttrUpperThresh, th.UpperThreshold},
		{tmp007.AttrLowerThresh, th.LowerThreshold},
	}
	for _, l := range limits {
		t, ok, err := l.value()
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := dev.SetAttribute(tmp007.ChanTemp, l.attr, tmp007.ValueFromTemperature(t)); err != nil {
			return err
		}
	}
	return nil
}

// sensorTopics are the event topics one sensor publishes on.
type sensorTopics struct {
	sample events.Topic // retained tmp007.Value
	alert  events.Topic // tmp007.Value at the time of the threshold event
}

func topicsFor(addr uint16) sensorTopics {
	base := fmt.Sprintf("tmp007/%#x/", addr)
	return sensorTopics{sample: events.T(base + "sample"), alert: events.T(base + "alert")}
}

func registerTriggers(dev *tmp007.Device, bus *events.Bus, topics sensorTopics, log zerolog.Logger) error {
	onDataReady := func(d *tmp007.Device, _ tmp007.Trigger) {
		if v, ok := fetch(d, log); ok {
			bus.Publish(&events.Event{Topic: topics.sample, Payload: v, Retained: true})
		}
	}
	onThreshold := func(d *tmp007.Device, _ tmp007.Trigger) {
		v, err := d.ChannelGet(tmp007.ChanTemp)
		if err != nil {
			return
		}
		bus.Publish(&events.Event{Topic: topics.alert, Payload: v})
	}

	if err := dev.SetTrigger(tmp007.Trigger{Type: tmp007.TrigDataReady, Chan: tmp007.ChanTemp}, onDataReady); err != nil {
		return err
	}
	return dev.SetTrigger(tmp007.Trigger{Type: tmp007.TrigThreshold, Chan: tmp007.ChanTemp}, onThreshold)
}

func fetch(d *tmp007.Device, log zerolog.Logger) (tmp007.Value, bool) {
	if err := d.SampleFetch(); err != nil {
		log.Warn().Err(err).Str("code", string(errcode.Of(err))).Msg("sample fetch failed")
		return tmp007.Value{}, false
	}
	v, err := d.ChannelGet(tmp007.ChanTemp)
	if err != nil {
		return tmp007.Value{}, false
	}
	return v, true
}

// consume turns sensor events into metrics and log lines.
func consume(ctx context.Context, bus *events.Bus, topics sensorTopics, sensor *metrics.Sensor, log zerolog.Logger) {
	samples := bus.Subscribe(topics.sample)
	alerts := bus.Subscribe(topics.alert)
	defer samples.Unsubscribe()
	defer alerts.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-samples.Events():
			if v, ok := ev.Payload.(tmp007.Value); ok {
				sensor.ObserveTemperature(v)
				log.Debug().Stringer("temp", v.Temperature()).Msg("sample")
			}
		case ev := <-alerts.Events():
			if v, ok := ev.Payload.(tmp007.Value); ok {
				log.Warn().Stringer("temp", v.Temperature()).Msg("object temperature outside limits")
			}
		}
	}
}

// poll samples on a fixed interval when no interrupt is configured.
func poll(ctx context.Context, dev *tmp007.Device, bus *events.Bus, topics sensorTopics, every time.Duration, log zerolog.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if v, ok := fetch(dev, log); ok {
				bus.Publish(&events.Event{Topic: topics.sample, Payload: v, Retained: true})
			}
		}
	}
}

// simulate sweeps the simulated object temperature back and forth across the
// configured limits so both trigger kinds fire.
func simulate(ctx context.Context, sim *platform.SimTMP007, cfg config.Config, log zerolog.Logger) {
	lo, hi := sweepBounds(cfg)
	cur := cfg.Sim.StartTemperature()
	step := physic.Kelvin / 2

	t := time.NewTicker(cfg.Sim.Interval())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			sim.Sample(cur)
			log.Trace().Stringer("temp", cur).Msg("simulated sample")
			if cur+step > hi || cur+step < lo {
				step = -step
			}
			cur += step
		}
	}
}

func sweepBounds(cfg config.Config) (lo, hi physic.Temperature) {
	start := cfg.Sim.StartTemperature()
	lo, hi = start-10*physic.Kelvin, start+10*physic.Kelvin
	if t, ok, _ := cfg.Thresholds.LowerThreshold(); ok {
		lo = t - 2*physic.Kelvin
	}
	if t, ok, _ := cfg.Thresholds.UpperThreshold(); ok {
		hi = t + 2*physic.Kelvin
	}
	return lo, hi
}

// serveMetrics blocks until ctx is done. An empty addr disables the exporter.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log zerolog.Logger) error {
	if addr == "" {
		<-ctx.Done()
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info().Str("addr", addr).Msg("serving metrics")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
