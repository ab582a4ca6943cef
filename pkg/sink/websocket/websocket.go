// Package websocket streams samples to a websocket endpoint.
package websocket

import (
	"time"

	"golang.org/x/net/websocket"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
)

// Message is the JSON form of a sample.
type Message struct {
	Time      time.Time `json:"time"`
	SpO2      uint8     `json:"spo2"`
	Pulse     uint8     `json:"pulse"`
	Remaining int       `json:"remaining"`
}

// MessageFrom converts a sample.
func MessageFrom(s cms50f.Sample) Message {
	return Message{Time: s.Time, SpO2: s.SpO2, Pulse: s.Pulse, Remaining: s.Remaining}
}

// Sample converts back to a sample.
func (m Message) Sample() cms50f.Sample {
	return cms50f.Sample{Time: m.Time, SpO2: m.SpO2, Pulse: m.Pulse, Remaining: m.Remaining}
}

// Sink sends every sample as a JSON message.
type Sink struct {
	conn *websocket.Conn
	sent int
	err  error
}

// DefaultOrigin is sent when dialing without an explicit origin.
const DefaultOrigin = "http://localhost/"

// Dial connects to url and creates a Sink.
func Dial(url, origin string) (*Sink, error) {
	if origin == "" {
		origin = DefaultOrigin
	}
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *Sink {
	return &Sink{conn: conn}
}

// Sent returns the number of messages sent.
func (s *Sink) Sent() int {
	return s.sent
}

// HandleSample implements cms50f.Sink.
func (s *Sink) HandleSample(smp cms50f.Sample) {
	if s.err != nil {
		return
	}
	if s.err = websocket.JSON.Send(s.conn, MessageFrom(smp)); s.err == nil {
		s.sent++
	}
}

// Close closes the connection and reports the first send error.
func (s *Sink) Close() error {
	err := s.conn.Close()
	if s.err != nil {
		return s.err
	}
	return err
}
