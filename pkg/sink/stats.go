package sink

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
)

// Range tracks min, max and mean of measured values.
type Range struct {
	Min   uint8
	Max   uint8
	Count int
	sum   int
}

func (r *Range) add(v uint8) {
	if v == 0 {
		return
	}
	if r.Count == 0 || v < r.Min {
		r.Min = v
	}
	if v > r.Max {
		r.Max = v
	}
	r.Count++
	r.sum += int(v)
}

// Mean returns the average, 0 without values.
func (r Range) Mean() float64 {
	if r.Count == 0 {
		return 0
	}
	return float64(r.sum) / float64(r.Count)
}

// String implements fmt.Stringer.
func (r Range) String() string {
	if r.Count == 0 {
		return "n/a"
	}
	return fmt.Sprintf("min %d, max %d, mean %.1f", r.Min, r.Max, r.Mean())
}

// Stats accumulates statistics over samples. Zero values mean no
// reading and are left out of the ranges.
type Stats struct {
	Samples int
	Valid   int
	SpO2    Range
	Pulse   Range
}

// HandleSample implements cms50f.Sink.
func (s *Stats) HandleSample(smp cms50f.Sample) {
	s.Samples++
	if smp.Valid() {
		s.Valid++
	}
	s.SpO2.add(smp.SpO2)
	s.Pulse.add(smp.Pulse)
}

// Summary describes the statistics.
func (s *Stats) Summary() string {
	return fmt.Sprintf("%d samples (%d valid), SpO2: %v, pulse: %v", s.Samples, s.Valid, s.SpO2, s.Pulse)
}

// Close implements io.Closer.
func (s *Stats) Close() error {
	glog.V(1).Info(s.Summary())
	return nil
}
