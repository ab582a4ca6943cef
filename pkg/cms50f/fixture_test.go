package cms50f

import (
	"bytes"
	"errors"
	"time"
)

type fixtureTransport struct {
	reads   [][]byte
	written bytes.Buffer

	configured bool
	closed     int

	configErr error
	writeErr  error
	readErr   error
	closeErr  error
	// maxWrite limits bytes accepted per Write call when non-zero.
	maxWrite int

	// events records write, read and sleep calls in order when tracing.
	trace  bool
	events []string
}

func (f *fixtureTransport) record(event string) {
	if f.trace {
		f.events = append(f.events, event)
	}
}

func (f *fixtureTransport) script(reads ...[]byte) *fixtureTransport {
	f.reads = append(f.reads, reads...)
	return f
}

func (f *fixtureTransport) Configure() error {
	if f.configErr != nil {
		return f.configErr
	}
	f.configured = true
	return nil
}

func (f *fixtureTransport) Read(p []byte) (int, error) {
	f.record("read")
	if f.readErr != nil {
		return 0, f.readErr
	}
	if len(f.reads) == 0 {
		return 0, nil
	}
	n := copy(p, f.reads[0])
	if n < len(f.reads[0]) {
		f.reads[0] = f.reads[0][n:]
	} else {
		f.reads = f.reads[1:]
	}
	return n, nil
}

func (f *fixtureTransport) Write(p []byte) (int, error) {
	f.record("write")
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	if f.maxWrite > 0 && len(p) > f.maxWrite {
		p = p[:f.maxWrite]
	}
	return f.written.Write(p)
}

func (f *fixtureTransport) Close() error {
	f.closed++
	return f.closeErr
}

var errFixture = errors.New("fixture failure")

func ackResponse() []byte {
	return []byte{byte(ResFreeFeedback), 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}
}

// lengthResponse encodes a half-second count below 256.
func lengthResponse(count int) []byte {
	b := []byte{byte(ResStorageLength), 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}
	if count&0x80 != 0 {
		b[1] |= 0x04
	}
	b[4] |= byte(count & 0x7f)
	return b
}

func startTimeResponse(t time.Time) []byte {
	return []byte{
		byte(ResStorageStartDate), 0x80, 0x80, 0x80,
		0x80 | byte(t.Year()/100), 0x80 | byte(t.Year()%100), 0x80 | byte(t.Month()), 0x80 | byte(t.Day()),
		byte(ResStorageStartTime), 0x80, 0x80, 0x80,
		0x80 | byte(t.Hour()), 0x80 | byte(t.Minute()), 0x80 | byte(t.Second()), 0x80,
	}
}

func dataChunk(pairs ...byte) []byte {
	b := []byte{byte(ResStorageData), 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}
	for i, v := range pairs {
		b[2+i] |= v
	}
	return b
}

func frames(cmds ...Command) []byte {
	var buf bytes.Buffer
	for _, c := range cmds {
		f := EncodeCommand(c)
		buf.Write(f[:])
	}
	return buf.Bytes()
}

type sampleRecorder struct {
	samples []Sample
}

func (r *sampleRecorder) HandleSample(s Sample) {
	r.samples = append(r.samples, s)
}
