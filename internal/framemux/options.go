package framemux

import (
	"fmt"
	"slices"

	"go.bug.st/serial"
)

// DefaultBaudRate is the perception unit's factory line speed.
const DefaultBaudRate = 115200

// SupportedBaudRates are the line speeds the perception unit's USB bridge
// can be configured for. The framing is always 8N1.
var SupportedBaudRates = []int{115200, 230400, 460800, 921600}

// PortOptions describes the serial connection to the perception unit.
type PortOptions struct {
	BaudRate int `json:"baud_rate"`
}

// SerialMode validates the options and returns the 8N1 serial.Mode used to
// open the port. A zero baud rate selects DefaultBaudRate.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	baud := o.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}
	if !slices.Contains(SupportedBaudRates, baud) {
		return nil, fmt.Errorf("unsupported baud rate %d: perception unit accepts %v", o.BaudRate, SupportedBaudRates)
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}, nil
}
