package tmp007

import (
	"errors"

	"tmp007-go/errcode"
)

// ErrDataInvalid is returned by SampleFetch when the sensor flags the
// conversion as invalid.
var ErrDataInvalid = errors.New("tmp007: object temperature invalid")

// SampleFetch latches the current object temperature.
func (d *Device) SampleFetch() error {
	raw, err := d.readReg(RegTObj)
	if err != nil {
		return errcode.Wrap(errcode.IOError, "sample_fetch", err)
	}
	if raw&tobjDataInvalid != 0 {
		return errcode.Wrap(errcode.IOError, "sample_fetch", ErrDataInvalid)
	}
	d.busMu.Lock()
	d.sample = int16(raw) >> 2
	d.busMu.Unlock()
	return nil
}

// ChannelGet returns the last fetched sample. Only ChanTemp is supported.
func (d *Device) ChannelGet(ch Channel) (Value, error) {
	if ch != ChanTemp {
		return Value{}, &errcode.E{C: errcode.NotSupported, Op: "channel_get"}
	}
	d.busMu.Lock()
	s := d.sample
	d.busMu.Unlock()
	return ValueFromMicro(int64(s) * TempScale), nil
}
