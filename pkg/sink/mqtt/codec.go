package mqtt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
)

// Fields of an encoded sample.
const (
	FieldTime      = "time"
	FieldSpO2      = "spo2"
	FieldPulse     = "pulse"
	FieldRemaining = "remaining"
)

var (
	// ErrPublishTimeout indicates the broker didn't acknowledge in time.
	ErrPublishTimeout = errors.New("publish timeout")
	// ErrBadPayload indicates a payload which isn't an encoded sample.
	ErrBadPayload = errors.New("bad sample payload")
)

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

// Encode encodes a sample as a protobuf Struct.
func Encode(s cms50f.Sample) ([]byte, error) {
	msg := &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldTime:      {Kind: &structpb.Value_StringValue{StringValue: s.Time.Format(time.RFC3339)}},
		FieldSpO2:      numberValue(float64(s.SpO2)),
		FieldPulse:     numberValue(float64(s.Pulse)),
		FieldRemaining: numberValue(float64(s.Remaining)),
	}}
	return proto.Marshal(msg)
}

// Decode decodes a payload produced by Encode.
func Decode(payload []byte) (s cms50f.Sample, err error) {
	var msg structpb.Struct
	if err = proto.Unmarshal(payload, &msg); err != nil {
		return
	}
	field := func(name string) (*structpb.Value, error) {
		if v, ok := msg.Fields[name]; ok && v != nil {
			return v, nil
		}
		return nil, fmt.Errorf("%w: missing %s", ErrBadPayload, name)
	}
	v, err := field(FieldTime)
	if err != nil {
		return
	}
	if s.Time, err = time.Parse(time.RFC3339, v.GetStringValue()); err != nil {
		return s, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	numbers := []struct {
		name string
		max  float64
		set  func(float64)
	}{
		{FieldSpO2, 0xff, func(f float64) { s.SpO2 = uint8(f) }},
		{FieldPulse, 0xff, func(f float64) { s.Pulse = uint8(f) }},
		{FieldRemaining, 1 << 31, func(f float64) { s.Remaining = int(f) }},
	}
	for _, n := range numbers {
		if v, err = field(n.name); err != nil {
			return
		}
		f := v.GetNumberValue()
		if f < 0 || f > n.max {
			return s, fmt.Errorf("%w: %s out of range", ErrBadPayload, n.name)
		}
		n.set(f)
	}
	return s, nil
}
