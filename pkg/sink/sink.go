// Package sink provides consumers of downloaded samples.
//
// Every sink keeps its own state and is finalized by Close, which also
// reports the first failure met while handling samples.
package sink

import (
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
	fx "github.com/robotalks/cms50f.go/pkg/framework"
)

// Sink is a cms50f.Sink with a finalize step.
type Sink interface {
	cms50f.Sink
	io.Closer
}

// Multi fans samples out to multiple sinks.
type Multi []Sink

// HandleSample implements cms50f.Sink.
func (m Multi) HandleSample(s cms50f.Sample) {
	for _, sink := range m {
		sink.HandleSample(s)
	}
}

// Close closes all sinks and aggregates errors.
func (m Multi) Close() error {
	var errs fx.AggregatedError
	for _, sink := range m {
		if err := sink.Close(); err != nil {
			glog.Warningf("sink close: %v", err)
			errs.Add(err)
		}
	}
	return errs.Aggregate()
}

// Nop wraps a cms50f.Sink which needs no finalization.
func Nop(s cms50f.Sink) Sink {
	return nopCloser{s}
}

type nopCloser struct {
	cms50f.Sink
}

func (nopCloser) Close() error { return nil }
