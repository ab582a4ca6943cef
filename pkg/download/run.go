package download

import (
	"context"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
	fx "github.com/robotalks/cms50f.go/pkg/framework"
	"github.com/robotalks/cms50f.go/pkg/replay"
	"github.com/robotalks/cms50f.go/pkg/sink"
	"github.com/robotalks/cms50f.go/pkg/sink/mqtt"
	"github.com/robotalks/cms50f.go/pkg/sink/websocket"
)

// NewSink creates the sinks enabled in the config. The returned
// Stats is also part of the Multi.
func (c *Config) NewSink() (sink.Multi, *sink.Stats, error) {
	stats := &sink.Stats{}
	sinks := sink.Multi{stats}
	if c.Console {
		sinks = append(sinks, sink.NewConsole(os.Stdout))
	}
	if c.Text {
		sinks = append(sinks, sink.NewTextFile(c.OutputDir))
	}
	if c.CSV {
		sinks = append(sinks, sink.NewCSVFile(c.OutputDir))
	}
	if c.Plot {
		p := sink.NewPlot(c.OutputDir)
		if c.Render {
			if p.Gnuplot = sink.LookupGnuplot(); p.Gnuplot == "" {
				glog.Warning("gnuplot not found, plot will not be rendered")
			}
		}
		sinks = append(sinks, p)
	}
	if c.MQTTURL != "" {
		s, err := mqtt.Dial(c.MQTTURL)
		if err != nil {
			sinks.Close()
			return nil, nil, err
		}
		sinks = append(sinks, s)
	}
	if c.WebsocketURL != "" {
		s, err := websocket.Dial(c.WebsocketURL, "")
		if err != nil {
			sinks.Close()
			return nil, nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, stats, nil
}

// Run downloads from the serial device, or replays when Replay is set.
func (c *Config) Run(ctx context.Context) (*sink.Stats, error) {
	return c.RunWith(ctx, cms50f.OpenSerial)
}

// RunWith is Run opening the device with a specific Opener.
func (c *Config) RunWith(ctx context.Context, open cms50f.Opener) (*sink.Stats, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	sinks, stats, err := c.NewSink()
	if err != nil {
		return nil, err
	}
	errs := &fx.AggregatedError{}
	if c.Replay != "" {
		_, err = replay.PlayFile(ctx, c.Replay, time.Local, sinks)
	} else {
		err = c.download(ctx, open, sinks)
	}
	errs.Add(err, sinks.Close())
	glog.Info(stats.Summary())
	return stats, errs.Aggregate()
}

func (c *Config) download(ctx context.Context, open cms50f.Opener, s cms50f.Sink) error {
	dev, err := cms50f.OpenWith(c.Device, open)
	if err != nil {
		return err
	}
	session := cms50f.NewSession(dev)
	session.OverrideCount = uint32(c.Count)
	session.Location = time.Local
	session.Notifier = cms50f.StateChangedFunc(func(state cms50f.State) {
		switch state {
		case cms50f.StateStartTimeKnown:
			meta := session.Metadata()
			glog.Infof("recording started %s, %d samples", meta.StartTime.Format(sink.TimeLayout), meta.Count)
		case cms50f.StateDone:
			glog.Infof("downloaded %d samples", session.Received())
		}
	})
	err = session.Run(ctx, s)
	if closeErr := dev.Close(); closeErr != nil {
		if err == nil {
			return closeErr
		}
		glog.Warningf("%v", closeErr)
	}
	return err
}
