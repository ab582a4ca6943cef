package mqtt

import (
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
)

// SampleHandler receives samples published by any host.
type SampleHandler func(topic string, s cms50f.Sample, err error)

// Dispatch decodes a payload and passes it to fn.
func (fn SampleHandler) Dispatch(topic string, payload []byte) {
	s, err := Decode(payload)
	fn(topic, s, err)
}

// Monitor subscribes to samples of all hosts under the topic prefix of
// brokerURL. Disconnect the returned client to stop.
func Monitor(brokerURL string, fn SampleHandler) (paho.Client, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if opts.ClientID == "" {
		opts.SetClientID(appID + "-mon-" + HostID())
	}
	client := paho.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	topic := prefix + "+/" + SampleTopic
	glog.V(1).Infof("SUB %q", topic)
	token = client.Subscribe(topic, 0, func(_ paho.Client, msg paho.Message) {
		fn.Dispatch(msg.Topic(), msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		client.Disconnect(disconnectQuiesce)
		return nil, err
	}
	return client, nil
}
