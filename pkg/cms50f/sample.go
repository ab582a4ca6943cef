package cms50f

import "time"

// Sample is one decoded measurement.
type Sample struct {
	Time  time.Time
	SpO2  uint8
	Pulse uint8
	// Remaining is the number of samples still to come in the session.
	Remaining int
}

// Valid tells if both values were measured.
func (s Sample) Valid() bool {
	return s.SpO2 != 0 && s.Pulse != 0
}

// Last tells if this is the final sample of the session.
func (s Sample) Last() bool {
	return s.Remaining == 0
}

// Sink consumes decoded samples in timestamp order.
type Sink interface {
	HandleSample(Sample)
}

// SinkFunc is func form of Sink.
type SinkFunc func(Sample)

// HandleSample implements Sink.
func (f SinkFunc) HandleSample(s Sample) {
	f(s)
}
