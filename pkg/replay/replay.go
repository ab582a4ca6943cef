// Package replay feeds a previously recorded CSV file into a sink.
package replay

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
	"github.com/robotalks/cms50f.go/pkg/sink"
)

// ErrBadHeader indicates the file is not a recording.
var ErrBadHeader = errors.New("not a recording: bad CSV header")

// RecordError reports an invalid record.
type RecordError struct {
	Line int
	Err  error
}

// Error implements error.
func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Unwrap returns the cause.
func (e *RecordError) Unwrap() error {
	return e.Err
}

// Read parses all samples of a recording. Remaining counts down to 0.
func Read(r io.Reader, loc *time.Location) ([]cms50f.Sample, error) {
	if loc == nil {
		loc = time.Local
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = len(sink.CSVHeader)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrBadHeader
	}
	if err != nil {
		return nil, err
	}
	for i, name := range sink.CSVHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), name) {
			return nil, ErrBadHeader
		}
	}

	var samples []cms50f.Sample
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		s, err := parseRecord(record, loc)
		if err != nil {
			return nil, &RecordError{Line: line, Err: err}
		}
		samples = append(samples, s)
	}
	for i := range samples {
		samples[i].Remaining = len(samples) - i - 1
	}
	return samples, nil
}

func parseRecord(record []string, loc *time.Location) (s cms50f.Sample, err error) {
	stamp := strings.TrimSpace(record[0]) + " " + strings.TrimSpace(record[1])
	if s.Time, err = time.ParseInLocation(sink.CSVDateLayout+" "+sink.CSVTimeLayout, stamp, loc); err != nil {
		return
	}
	spo2, err := strconv.ParseUint(strings.TrimSpace(record[2]), 10, 8)
	if err != nil {
		return s, fmt.Errorf("SPO2: %w", err)
	}
	pulse, err := strconv.ParseUint(strings.TrimSpace(record[3]), 10, 8)
	if err != nil {
		return s, fmt.Errorf("PULSE: %w", err)
	}
	s.SpO2, s.Pulse = uint8(spo2), uint8(pulse)
	return s, nil
}

// Play sends all samples of a recording to sink and returns how many were sent.
// The context is checked between samples.
func Play(ctx context.Context, r io.Reader, loc *time.Location, s cms50f.Sink) (int, error) {
	samples, err := Read(r, loc)
	if err != nil {
		return 0, err
	}
	for n, smp := range samples {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		default:
		}
		s.HandleSample(smp)
	}
	glog.V(1).Infof("%d samples replayed", len(samples))
	return len(samples), nil
}

// PlayFile replays the recording at path.
func PlayFile(ctx context.Context, path string, loc *time.Location, s cms50f.Sink) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := Play(ctx, f, loc, s)
	if err != nil {
		err = fmt.Errorf("replay %s: %w", path, err)
	}
	return n, err
}
