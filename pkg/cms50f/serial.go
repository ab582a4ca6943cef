package cms50f

import (
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// ReadTimeout bounds a single read on the serial link.
const ReadTimeout = 500 * time.Millisecond

var serialMode = serial.Mode{
	BaudRate: 115200,
	DataBits: 8,
	Parity:   serial.NoParity,
	StopBits: serial.OneStopBit,
}

type serialTransport struct {
	serial.Port
}

// OpenSerial opens the serial port as a Transport.
func OpenSerial(name string) (Transport, error) {
	mode := serialMode
	port, err := serial.Open(name, &mode)
	if err != nil {
		return nil, err
	}
	return &serialTransport{Port: port}, nil
}

// Configure implements Transport.
// The port is raw without flow control and ignores modem control lines.
func (t *serialTransport) Configure() error {
	mode := serialMode
	if err := t.Port.SetMode(&mode); err != nil {
		return err
	}
	if err := t.Port.SetReadTimeout(ReadTimeout); err != nil {
		return err
	}
	return t.Port.ResetInputBuffer()
}

// Close implements Transport. DTR is dropped first to hang up the line.
func (t *serialTransport) Close() error {
	if err := t.Port.SetDTR(false); err != nil {
		glog.V(1).Infof("hang-up failed: %v", err)
	}
	return t.Port.Close()
}
