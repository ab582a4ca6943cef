package cms50f

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// Protocol timing required by the device.
const (
	// CommandSettle is the wait after a command before reading the response.
	CommandSettle = 4500 * time.Microsecond
	// ChunkPause is the wait between two storage data chunk reads.
	ChunkPause = time.Millisecond
)

const responseBufferSize = 32

// sleep is replaced in tests.
var sleep = time.Sleep

// Device is an open handle to an oximeter.
// A handle runs one exchange at a time, concurrent use fails with ErrInvalidHandle.
type Device struct {
	name      string
	transport Transport
	lock      sync.Mutex
	busy      int32
}

// Open opens the serial device with name.
func Open(name string) (*Device, error) {
	return OpenWith(name, OpenSerial)
}

// OpenWith opens the device using a specific Opener.
func OpenWith(name string, open Opener) (*Device, error) {
	glog.V(1).Infof("trying to open %s", name)
	t, err := open(name)
	if err != nil {
		return nil, &OpError{Op: "open", Device: name, Kind: ErrUnavailable, Err: err}
	}
	glog.V(1).Infof("device %s opened", name)
	return NewDevice(name, t), nil
}

// NewDevice wraps an opened Transport.
func NewDevice(name string, t Transport) *Device {
	return &Device{name: name, transport: t}
}

// Name returns the device identifier.
func (d *Device) Name() string {
	if d == nil {
		return ""
	}
	return d.name
}

// IsOpen tells if the handle is still open.
func (d *Device) IsOpen() bool {
	if d == nil {
		return false
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.transport != nil
}

// Close closes the device. Closing a closed handle is a no-op.
func (d *Device) Close() error {
	if d == nil {
		return nil
	}
	d.lock.Lock()
	t := d.transport
	d.transport = nil
	d.lock.Unlock()
	if t == nil {
		return nil
	}
	if err := t.Close(); err != nil {
		glog.V(1).Infof("device %s could not be closed: %v", d.name, err)
		return d.opError("close", ErrCloseFailed, err)
	}
	glog.V(1).Infof("device %s closed", d.name)
	return nil
}

// Configure configures the serial link.
func (d *Device) Configure() error {
	return d.do(func(t Transport) error {
		return d.configure(t)
	})
}

// StopStorageStreaming stops the device from sending storage data.
func (d *Device) StopStorageStreaming() error {
	return d.do(func(t Transport) error {
		return d.exchange(t, CmdStopStorageStreaming)
	})
}

// StopRealtimeStreaming stops the device from sending realtime data.
func (d *Device) StopRealtimeStreaming() error {
	return d.do(func(t Transport) error {
		return d.exchange(t, CmdStopRealtimeStreaming)
	})
}

// StorageLength queries the length of the stored recording.
func (d *Device) StorageLength() (l StorageLength, err error) {
	err = d.do(func(t Transport) (err error) {
		l, err = d.storageLength(t)
		return
	})
	return
}

// StorageStartTime queries the start time of the stored recording.
func (d *Device) StorageStartTime(loc *time.Location) (start time.Time, err error) {
	err = d.do(func(t Transport) (err error) {
		start, err = d.storageStartTime(t, loc)
		return
	})
	return
}

// StorageData downloads count samples, the first one stamped with start.
// It returns the number of samples passed to sink.
func (d *Device) StorageData(ctx context.Context, count int, start time.Time, sink Sink) (n int, err error) {
	err = d.do(func(t Transport) (err error) {
		n, err = d.storageData(ctx, t, count, start, sink)
		return
	})
	return
}

func (d *Device) acquire() (Transport, error) {
	if d == nil {
		return nil, &OpError{Op: "acquire", Kind: ErrInvalidHandle}
	}
	if !atomic.CompareAndSwapInt32(&d.busy, 0, 1) {
		return nil, &OpError{Op: "acquire", Device: d.name, Kind: ErrInvalidHandle,
			Err: errors.New("handle in use")}
	}
	d.lock.Lock()
	t := d.transport
	d.lock.Unlock()
	if t == nil {
		atomic.StoreInt32(&d.busy, 0)
		return nil, &OpError{Op: "acquire", Device: d.name, Kind: ErrInvalidHandle,
			Err: errors.New("closed")}
	}
	return t, nil
}

func (d *Device) release() {
	atomic.StoreInt32(&d.busy, 0)
}

func (d *Device) do(fn func(Transport) error) error {
	t, err := d.acquire()
	if err != nil {
		return err
	}
	defer d.release()
	return fn(t)
}

func (d *Device) opError(op string, kind, err error) error {
	return &OpError{Op: op, Device: d.name, Kind: kind, Err: err}
}

func (d *Device) configure(t Transport) error {
	glog.V(1).Infof("trying to configure device %s", d.name)
	if err := t.Configure(); err != nil {
		return d.opError("configure", ErrConfigFailed, err)
	}
	glog.V(1).Infof("device %s configured", d.name)
	return nil
}

func (d *Device) send(t Transport, c Command) error {
	frame := EncodeCommand(c)
	glog.V(2).Infof("%s: going to send command <%v> [% x]", d.name, c, frame[:])
	if _, err := frame.WriteTo(t); err != nil {
		return d.opError("write", ErrWriteFailed, err)
	}
	sleep(CommandSettle)
	return nil
}

// read fills buf until it holds at least want bytes or the link goes quiet.
func (d *Device) read(t Transport, buf []byte, want int) (int, error) {
	var n int
	for n < len(buf) {
		m, err := t.Read(buf[n:])
		n += m
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, d.opError("read", ErrReadFailed, err)
		}
		if m == 0 || n >= want {
			break
		}
	}
	return n, nil
}

func (d *Device) receive(t Transport, expected Response, want int) ([]byte, error) {
	buf := make([]byte, responseBufferSize)
	n, err := d.read(t, buf, want)
	if err != nil {
		return nil, err
	}
	resp := buf[:n]
	glog.V(2).Infof("%s: expected answer %v, received [% x]", d.name, expected, resp)
	if err := ValidateHeader(resp, expected); err != nil {
		return nil, err
	}
	MaskOff(resp)
	return resp, nil
}

func (d *Device) exchange(t Transport, c Command) error {
	if err := d.send(t, c); err != nil {
		return err
	}
	_, err := d.receive(t, c.Response(), AckResponseSize)
	return err
}

func (d *Device) storageLength(t Transport) (StorageLength, error) {
	if err := d.send(t, CmdStorageLength); err != nil {
		return StorageLength{}, err
	}
	resp, err := d.receive(t, ResStorageLength, LengthResponseSize)
	if err != nil {
		return StorageLength{}, err
	}
	l, err := DecodeStorageLength(resp)
	if err == nil {
		glog.V(1).Infof("%s: storage length %d (%ds)", d.name, l.Count, l.Seconds())
	}
	return l, err
}

// startTimeFrameOffset is where the time frame follows the date frame.
const startTimeFrameOffset = 8

func (d *Device) storageStartTime(t Transport, loc *time.Location) (time.Time, error) {
	if err := d.send(t, CmdStorageStartTime); err != nil {
		return time.Time{}, err
	}
	buf := make([]byte, responseBufferSize)
	n, err := d.read(t, buf, StartTimeResponseSize)
	if err != nil {
		return time.Time{}, err
	}
	resp := buf[:n]
	glog.V(2).Infof("%s: expected answer %v, received [% x]", d.name, ResStorageStartDate, resp)
	if err := ValidateHeader(resp, ResStorageStartDate); err != nil {
		return time.Time{}, err
	}
	if len(resp) > startTimeFrameOffset {
		if err := validateAt(resp, startTimeFrameOffset, ResStorageStartTime); err != nil {
			return time.Time{}, err
		}
	}
	MaskOff(resp)
	start, err := DecodeStartTime(resp, loc)
	if err == nil {
		glog.V(1).Infof("%s: storage start time %v", d.name, start)
	}
	return start, err
}

func (d *Device) storageData(ctx context.Context, t Transport, count int, start time.Time, sink Sink) (int, error) {
	if err := d.send(t, CmdStorageData); err != nil {
		return 0, err
	}
	var (
		chunk   = make([]byte, ChunkSize)
		clock   = start
		emitted int
	)
	for emitted < count {
		if emitted > 0 {
			sleep(ChunkPause)
		}
		select {
		case <-ctx.Done():
			glog.V(1).Infof("%s: download canceled after %d values", d.name, emitted)
			return emitted, ctx.Err()
		default:
		}
		n, err := d.read(t, chunk, ChunkSize)
		if err != nil {
			return emitted, err
		}
		if n < ChunkSize {
			glog.V(2).Infof("%s: stream ended with [% x]", d.name, chunk[:n])
			return emitted, &IncompleteStreamError{Expected: count, Received: emitted}
		}
		glog.V(3).Infof("%s: chunk [% x]", d.name, chunk)
		if err := ValidateHeader(chunk, ResStorageData); err != nil {
			return emitted, err
		}
		MaskOff(chunk)
		for _, r := range DecodeChunk(chunk) {
			emitted++
			sink.HandleSample(Sample{Time: clock, SpO2: r.SpO2, Pulse: r.Pulse, Remaining: count - emitted})
			clock = clock.Add(time.Second)
			if emitted == count {
				break
			}
		}
	}
	glog.V(1).Infof("%s: %d values downloaded", d.name, emitted)
	return emitted, nil
}
