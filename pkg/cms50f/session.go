package cms50f

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"
)

// State is the progress of a download session.
type State int

// Session states in order. StateFailed is reachable from any other
// non-terminal state.
const (
	StateIdle State = iota
	StateConfigured
	StateStreamingSilenced
	StateLengthKnown
	StateStartTimeKnown
	StateDownloading
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:              "idle",
	StateConfigured:        "configured",
	StateStreamingSilenced: "streaming-silenced",
	StateLengthKnown:       "length-known",
	StateStartTimeKnown:    "start-time-known",
	StateDownloading:       "downloading",
	StateDone:              "done",
	StateFailed:            "failed",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// IsTerminal tells if the session is over.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// StateNotifier is called when the session state changed.
type StateNotifier interface {
	StateChanged(State)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(State)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(state State) {
	f(state)
}

// Metadata describes the recording being downloaded.
type Metadata struct {
	// Count is the target number of samples.
	Count int
	// Overridden is set when Count was supplied by the caller.
	Overridden bool
	StartTime  time.Time
}

// Session downloads the stored recording from a Device.
// A Session is used once.
type Session struct {
	Device *Device
	// OverrideCount, if non-zero, replaces the device reported length
	// and skips the length query.
	OverrideCount uint32
	// Location interprets the device start time, time.Local if nil.
	Location *time.Location
	Notifier StateNotifier

	state    State
	meta     Metadata
	received int
	err      error
}

// NewSession creates a Session on the device.
func NewSession(d *Device) *Session {
	return &Session{Device: d}
}

// State gets the state.
func (s *Session) State() State {
	return s.state
}

// Metadata returns what is known about the recording so far.
func (s *Session) Metadata() Metadata {
	return s.meta
}

// Received returns the number of samples passed to the sink.
func (s *Session) Received() int {
	return s.received
}

// Err returns the error which failed the session.
func (s *Session) Err() error {
	return s.err
}

// Run runs the whole session and feeds every sample to sink.
// The device handle is left open, the caller closes it on every outcome.
func (s *Session) Run(ctx context.Context, sink Sink) error {
	if s.state != StateIdle {
		return &OpError{Op: "session", Device: s.Device.Name(), Kind: ErrInvalidHandle,
			Err: errors.New("session already used")}
	}
	t, err := s.Device.acquire()
	if err != nil {
		return s.fail(err)
	}
	defer s.Device.release()

	d := s.Device
	if err := d.configure(t); err != nil {
		return s.fail(err)
	}
	s.enter(StateConfigured)

	for _, cmd := range []Command{CmdStopStorageStreaming, CmdStopRealtimeStreaming} {
		if err := d.exchange(t, cmd); err != nil {
			return s.fail(err)
		}
	}
	s.enter(StateStreamingSilenced)

	if s.OverrideCount != 0 {
		s.meta.Count, s.meta.Overridden = int(s.OverrideCount), true
		glog.V(1).Infof("%s: using count %d instead of device length", d.name, s.meta.Count)
	} else {
		l, err := d.storageLength(t)
		if err != nil {
			return s.fail(err)
		}
		s.meta.Count = int(l.Seconds())
	}
	s.enter(StateLengthKnown)

	if s.meta.StartTime, err = d.storageStartTime(t, s.Location); err != nil {
		return s.fail(err)
	}
	s.enter(StateStartTimeKnown)

	if s.meta.Count == 0 {
		glog.V(1).Infof("%s: nothing recorded", d.name)
		s.enter(StateDone)
		return nil
	}

	s.enter(StateDownloading)
	s.received, err = d.storageData(ctx, t, s.meta.Count, s.meta.StartTime, sink)
	if err != nil {
		return s.fail(err)
	}
	s.enter(StateDone)
	return nil
}

func (s *Session) enter(state State) {
	glog.V(1).Infof("session %s -> %s", s.state, state)
	s.state = state
	if n := s.Notifier; n != nil {
		n.StateChanged(state)
	}
}

func (s *Session) fail(err error) error {
	glog.V(1).Infof("session failed in %s: %v", s.state, err)
	s.err = err
	s.enter(StateFailed)
	return err
}
