package tmp007

// I2C 16-bit word operations (big-endian: HIGH then LOW).

func (d *Device) readReg(reg byte) (uint16, error) {
	d.busMu.Lock()
	defer d.busMu.Unlock()
	d.w[0] = reg
	if err := d.bus.Tx(d.addr, d.w[:1], d.r[:2]); err != nil {
		return 0, err
	}
	return uint16(d.r[0])<<8 | uint16(d.r[1]), nil
}

func (d *Device) writeReg(reg byte, val uint16) error {
	d.busMu.Lock()
	defer d.busMu.Unlock()
	d.w[0] = reg
	d.w[1] = byte(val >> 8) // high
	d.w[2] = byte(val)      // low
	return d.bus.Tx(d.addr, d.w[:3], nil)
}

// updateReg replaces the bits selected by mask with val.
func (d *Device) updateReg(reg byte, mask, val uint16) error {
	old, err := d.readReg(reg)
	if err != nil {
		return err
	}
	return d.writeReg(reg, (old&^mask)|(val&mask))
}
