// Package platform supplies the bus and pin backends the driver runs on:
// host fakes and a simulated TMP007 for development, and sysfs I2C plus
// Raspberry Pi GPIO on Linux.
package platform

import (
	"tinygo.org/x/drivers"
)

// I2CBus is an I²C bus owned by the caller.
type I2CBus interface {
	drivers.I2C
	Close() error
}
