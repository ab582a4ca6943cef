package mqtt

import (
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
)

type fakeToken struct {
	err      error
	complete bool
}

func (t *fakeToken) Wait() bool                       { return t.complete }
func (t *fakeToken) WaitTimeout(_ time.Duration) bool { return t.complete }
func (t *fakeToken) Error() error                     { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	messages []published
	token    *fakeToken
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	p.messages = append(p.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return p.token
}

var testTime = time.Date(2024, time.January, 1, 8, 0, 0, 0, time.FixedZone("CET", 3600))

func TestSinkPublish(t *testing.T) {
	pub := &fakePublisher{token: &fakeToken{complete: true}}
	s := New(pub, "robo/host/sample")
	s.QoS = 1
	for i := 0; i < 3; i++ {
		s.HandleSample(cms50f.Sample{Time: testTime.Add(time.Duration(i) * time.Second), SpO2: 97, Pulse: uint8(60 + i), Remaining: 2 - i})
	}
	require.NoError(t, s.Close())
	require.Equal(t, 3, s.Published())
	require.Len(t, pub.messages, 3)
	for i, msg := range pub.messages {
		require.Equal(t, "robo/host/sample", msg.topic)
		require.Equal(t, byte(1), msg.qos)
		smp, err := Decode(msg.payload)
		require.NoError(t, err)
		require.True(t, testTime.Add(time.Duration(i)*time.Second).Equal(smp.Time))
		require.Equal(t, uint8(60+i), smp.Pulse)
		require.Equal(t, 2-i, smp.Remaining)
	}
}

func TestSinkPublishErrors(t *testing.T) {
	testCases := []struct {
		name  string
		token *fakeToken
		err   error
	}{
		{"broker error", &fakeToken{complete: true, err: errors.New("not authorized")}, errors.New("not authorized")},
		{"timeout", &fakeToken{}, ErrPublishTimeout},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pub := &fakePublisher{token: tc.token}
			s := New(pub, "sample")
			s.Timeout = time.Millisecond
			s.HandleSample(cms50f.Sample{Time: testTime})
			s.HandleSample(cms50f.Sample{Time: testTime})
			require.Equal(t, tc.err, s.Close())
			require.Len(t, pub.messages, 1)
			require.Equal(t, 0, s.Published())
		})
	}
}

func TestDecodeBadPayload(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xff})
	require.Error(t, err)

	encode := func(fields map[string]*structpb.Value) []byte {
		data, err := proto.Marshal(&structpb.Struct{Fields: fields})
		require.NoError(t, err)
		return data
	}
	timeValue := &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: testTime.Format(time.RFC3339)}}

	_, err = Decode(encode(map[string]*structpb.Value{FieldSpO2: numberValue(97)}))
	require.True(t, errors.Is(err, ErrBadPayload))

	_, err = Decode(encode(map[string]*structpb.Value{
		FieldTime: timeValue, FieldSpO2: numberValue(300), FieldPulse: numberValue(60), FieldRemaining: numberValue(0),
	}))
	require.True(t, errors.Is(err, ErrBadPayload))

	smp, err := Decode(encode(map[string]*structpb.Value{
		FieldTime: timeValue, FieldSpO2: numberValue(97), FieldPulse: numberValue(60), FieldRemaining: numberValue(5),
	}))
	require.NoError(t, err)
	require.Equal(t, uint8(97), smp.SpO2)
	require.Equal(t, 5, smp.Remaining)
}

func TestClientOptionsFromURL(t *testing.T) {
	testCases := []struct {
		url      string
		server   string
		prefix   string
		user     string
		clientID string
	}{
		{"mqtt://localhost:1883/robo/", "tcp://localhost:1883", "robo/", "", ""},
		{"mqtt://localhost:1883/robo", "tcp://localhost:1883", "robo/", "", ""},
		{"mqtt://localhost:1883", "tcp://localhost:1883", "", "", ""},
		{"ssl://u:p@broker:8883/a/b?client-id=me", "ssl://broker:8883", "a/b/", "u", "me"},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			opts, prefix, err := ClientOptionsFromURL(tc.url)
			require.NoError(t, err)
			require.Equal(t, tc.prefix, prefix)
			require.Len(t, opts.Servers, 1)
			require.Equal(t, tc.server, opts.Servers[0].String())
			require.Equal(t, tc.user, opts.Username)
			require.Equal(t, tc.clientID, opts.ClientID)
		})
	}
}

func TestSampleHandlerDispatch(t *testing.T) {
	payload, err := Encode(cms50f.Sample{Time: testTime, SpO2: 95, Pulse: 70, Remaining: 4})
	require.NoError(t, err)

	var got []cms50f.Sample
	var errs []error
	fn := SampleHandler(func(topic string, s cms50f.Sample, err error) {
		require.Equal(t, "cms50f/host/sample", topic)
		if err != nil {
			errs = append(errs, err)
			return
		}
		got = append(got, s)
	})
	fn.Dispatch("cms50f/host/sample", payload)
	fn.Dispatch("cms50f/host/sample", []byte{0x0a, 0x03, 0x0a})
	require.Len(t, got, 1)
	require.Equal(t, uint8(70), got[0].Pulse)
	require.Equal(t, 4, got[0].Remaining)
	require.Len(t, errs, 1)
}
