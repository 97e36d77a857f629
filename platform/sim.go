// platform/sim.go
package platform

import (
	"errors"
	"sync"

	"periph.io/x/conn/v3/physic"

	"tmp007-go/drivers/tmp007"
)

var ErrNack = errors.New("i2c: address not acknowledged")

// SimTMP007 emulates a TMP007 register file behind drivers.I2C. The ALERT
// line follows the datasheet's interrupt mode: asserted while ALERT_EN is
// set and any status flag is latched; reading STATUS clears the flags.
type SimTMP007 struct {
	mu      sync.Mutex
	addr    uint16
	thScale int64
	regs    [32]uint16
	alert   *FakePin
	readErr map[byte]error
}

// NewSimTMP007 creates a simulated sensor. thScale is the micro-degree
// weight of one threshold LSB; zero selects tmp007.ThresholdLSB.
func NewSimTMP007(addr uint16, alert *FakePin, thScale int64) *SimTMP007 {
	if addr == 0 {
		addr = tmp007.AddressDefault
	}
	if thScale <= 0 {
		thScale = tmp007.ThresholdLSB
	}
	s := &SimTMP007{addr: addr, thScale: thScale, alert: alert, readErr: map[byte]error{}}
	s.regs[tmp007.RegDeviceID] = 0x0078
	s.regs[tmp007.RegTObjThHigh] = 0x7FC0
	s.regs[tmp007.RegTObjThLow] = 0x8000
	return s
}

func (s *SimTMP007) Tx(addr uint16, w, r []byte) error {
	if addr != s.addr || len(w) == 0 {
		return ErrNack
	}
	reg := w[0] & 0x1F

	s.mu.Lock()
	if len(w) >= 3 {
		s.regs[reg] = uint16(w[1])<<8 | uint16(w[2])
	}
	if len(r) > 0 {
		if err := s.readErr[reg]; err != nil {
			s.mu.Unlock()
			return err
		}
		v := s.regs[reg]
		r[0] = byte(v >> 8)
		if len(r) > 1 {
			r[1] = byte(v)
		}
		if reg == tmp007.RegStatus {
			s.regs[reg] &^= tmp007.StatusDataReady | tmp007.StatusTObjTh
		}
	}
	level := s.alertLevel()
	s.mu.Unlock()

	s.drive(level)
	return nil
}

// FailReads makes every read of reg return err until cleared with nil.
func (s *SimTMP007) FailReads(reg byte, err error) {
	s.mu.Lock()
	if err == nil {
		delete(s.readErr, reg)
	} else {
		s.readErr[reg] = err
	}
	s.mu.Unlock()
}

// Register returns the raw value of reg.
func (s *SimTMP007) Register(reg byte) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[reg&0x1F]
}

// Raise latches status flags.
func (s *SimTMP007) Raise(bits uint16) {
	s.mu.Lock()
	s.regs[tmp007.RegStatus] |= bits
	level := s.alertLevel()
	s.mu.Unlock()
	s.drive(level)
}

// Sample stores a new object temperature, latches data-ready and compares it
// against the programmed limits.
func (s *SimTMP007) Sample(t physic.Temperature) {
	micro := tmp007.ValueFromTemperature(t).Micro()
	s.mu.Lock()
	s.regs[tmp007.RegTObj] = uint16(int16(micro/tmp007.TempScale) << 2)
	bits := uint16(tmp007.StatusDataReady)
	if micro > s.thresholdMicro(s.regs[tmp007.RegTObjThHigh]) {
		bits |= tmp007.StatusTObjHigh
	}
	if micro < s.thresholdMicro(s.regs[tmp007.RegTObjThLow]) {
		bits |= tmp007.StatusTObjLow
	}
	s.regs[tmp007.RegStatus] |= bits
	level := s.alertLevel()
	s.mu.Unlock()
	s.drive(level)
}

func (s *SimTMP007) thresholdMicro(raw uint16) int64 {
	return int64(int16(raw)>>6) * s.thScale
}

func (s *SimTMP007) alertLevel() bool {
	return s.regs[tmp007.RegConfig]&tmp007.ConfigAlertEn != 0 &&
		s.regs[tmp007.RegStatus]&(tmp007.StatusDataReady|tmp007.StatusTObjTh) != 0
}

// drive runs outside s.mu: the pin may call into the interrupt path.
func (s *SimTMP007) drive(level bool) {
	if s.alert != nil && s.alert.Get() != level {
		s.alert.Set(level)
	}
}
