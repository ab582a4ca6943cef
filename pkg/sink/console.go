package sink

import (
	"fmt"
	"io"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
)

// TimeLayout formats sample timestamps with the zone offset.
const TimeLayout = "2006-01-02T15:04:05Z07:00"

// FormatLine formats a sample as a human readable line.
func FormatLine(s cms50f.Sample) string {
	return fmt.Sprintf("%s, spo: %d, bpm: %d\n", s.Time.Format(TimeLayout), s.SpO2, s.Pulse)
}

// Console prints samples to a writer, usually stdout.
type Console struct {
	w   io.Writer
	err error
}

// NewConsole creates a Console.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// HandleSample implements cms50f.Sink.
func (c *Console) HandleSample(s cms50f.Sample) {
	if c.err != nil {
		return
	}
	_, c.err = io.WriteString(c.w, FormatLine(s))
}

// Close implements io.Closer.
func (c *Console) Close() error {
	return c.err
}
