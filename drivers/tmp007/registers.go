package tmp007

const (
	// 7-bit I2C address with ADR0/ADR1 strapped low.
	AddressDefault = 0x40

	// Register sub-addresses (16-bit, big-endian).
	RegVObj       = 0x00 // R: sensor voltage
	RegTDie       = 0x01 // R: local die temperature
	RegConfig     = 0x02 // R/W
	RegTObj       = 0x03 // R: object temperature, bits 15:2
	RegStatus     = 0x04 // R: interrupt flags, cleared on read in INT mode
	RegStatusMask = 0x05 // R/W
	RegTObjThHigh = 0x06 // R/W: object high limit, bits 15:6
	RegTObjThLow  = 0x07 // R/W: object low limit, bits 15:6
	RegDeviceID   = 0x1F // R

	// CONFIG bits.
	ConfigAlertEn = 1 << 8

	// STATUS bits.
	StatusDataReady = 1 << 14
	StatusTObjHigh  = 1 << 13
	StatusTObjLow   = 1 << 12
	StatusTObjTh    = StatusTObjHigh | StatusTObjLow

	// TOBJ bit 0 flags an invalid conversion.
	tobjDataInvalid = 1 << 0

	// Object temperature LSB in micro-degrees Celsius (0.03125 °C).
	TempScale = 31250

	// DefaultThresholdScale is the micro-degree divisor applied before the
	// threshold value is aligned into bits 15:6.
	DefaultThresholdScale = 31250

	// ThresholdLSB is the datasheet weight of one limit-register LSB
	// (0.5 °C). Boards that program limits in real degrees configure it as
	// the threshold scale.
	ThresholdLSB = 500000

	thresholdShift = 6
)
