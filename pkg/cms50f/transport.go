package cms50f

import "io"

// Transport is the byte channel to the device.
// Read returns whatever is available and 0 bytes once the link's own
// timeout expires without data.
type Transport interface {
	io.ReadWriteCloser
	// Configure fixes the link parameters required by the device.
	Configure() error
}

// Opener opens a Transport by device identifier.
type Opener func(name string) (Transport, error)
