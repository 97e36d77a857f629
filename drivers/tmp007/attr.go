package tmp007

import (
	"periph.io/x/conn/v3/physic"

	"tmp007-go/errcode"
)

// Value is a fixed-point reading: Val1 is the integer part and Val2 the
// fractional part in millionths, with the same sign as Val1.
type Value struct {
	Val1 int32
	Val2 int32
}

// Micro returns v in micro-units.
func (v Value) Micro() int64 { return int64(v.Val1)*1000000 + int64(v.Val2) }

// ValueFromMicro splits micro-units into a Value.
func ValueFromMicro(u int64) Value {
	return Value{Val1: int32(u / 1000000), Val2: int32(u % 1000000)}
}

// ValueFromTemperature converts an absolute temperature to degrees Celsius.
func ValueFromTemperature(t physic.Temperature) Value {
	return ValueFromMicro(int64((t - physic.ZeroCelsius) / physic.MicroKelvin))
}

// Temperature interprets v as degrees Celsius.
func (v Value) Temperature() physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(v.Micro())*physic.MicroKelvin
}

// SetAttribute programs an object temperature threshold. Only ChanTemp with
// AttrUpperThresh or AttrLowerThresh is supported.
func (d *Device) SetAttribute(ch Channel, attr Attribute, v Value) error {
	if ch != ChanTemp {
		return &errcode.E{C: errcode.NotSupported, Op: "attr_set", Msg: "channel"}
	}

	var reg byte
	switch attr {
	case AttrUpperThresh:
		reg = RegTObjThHigh
	case AttrLowerThresh:
		reg = RegTObjThLow
	default:
		return &errcode.E{C: errcode.NotSupported, Op: "attr_set", Msg: "attribute"}
	}

	if err := d.writeReg(reg, thresholdRaw(v, d.thScale)); err != nil {
		d.log.Debug().Err(err).Uint8("reg", reg).Msg("failed to set attribute")
		return errcode.Wrap(errcode.IOError, "attr_set", err)
	}
	return nil
}

// thresholdRaw aligns v/scale into the register's bits 15:6. Out-of-range
// values wrap like the 16-bit register they are written to.
func thresholdRaw(v Value, scale int64) uint16 {
	return uint16((v.Micro() / scale) << thresholdShift)
}
