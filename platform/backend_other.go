// platform/backend_other.go
//go:build !linux

package platform

import (
	"time"

	"tmp007-go/errcode"
	"tmp007-go/gpio"
)

func OpenI2C(path string) (I2CBus, error) {
	return nil, &errcode.E{C: errcode.NotSupported, Op: "open_i2c", Msg: "linux only"}
}

func OpenGPIO(pins []int, poll time.Duration) ([]gpio.IRQPin, func() error, error) {
	return nil, nil, &errcode.E{C: errcode.NotSupported, Op: "open_gpio", Msg: "linux only"}
}
