package framemux

import (
	"fmt"

	"go.bug.st/serial"
)

// NewSerialMux opens the perception unit's serial port at path.
func NewSerialMux(path string, opts PortOptions) (*FrameMux[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return NewFrameMux[serial.Port](port), nil
}
