package sh

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
	fx "github.com/robotalks/cms50f.go/pkg/framework"
	"github.com/robotalks/cms50f.go/pkg/sink"
)

func reportErr(c *ishell.Context, err error) {
	c.Err(err)
	if cms50f.NeedsReconnect(err) {
		c.Println("Device is out of sync, reconnect it and open again.")
	}
}

func done(c *ishell.Context, err error) {
	if err != nil {
		reportErr(c, err)
		return
	}
	c.Println("OK")
}

var (
	// OpenCmd opens a device.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[DEVICE]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			name := s.Config.Device
			if len(c.Args) > 0 {
				name = c.Args[0]
			}
			if name == "" {
				c.Err(fmt.Errorf("DEVICE required"))
				return
			}
			done(c, s.OpenDevice(name))
		},
	}

	// CloseCmd closes current device.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			done(c, ShellFrom(c).CloseDevice())
		},
	}

	// ConfigureCmd configures the serial link.
	ConfigureCmd = ishell.Cmd{
		Name: "configure",
		Help: "",
		Func: MustBeOpen(func(c *ishell.Context) {
			done(c, ShellFrom(c).Device.Configure())
		}),
	}

	// SilenceCmd stops storage and realtime streaming.
	SilenceCmd = ishell.Cmd{
		Name:    "silence",
		Aliases: []string{"stop"},
		Help:    "",
		Func: MustBeOpen(func(c *ishell.Context) {
			done(c, ShellFrom(c).Silence())
		}),
	}

	// LengthCmd queries the recording length.
	LengthCmd = ishell.Cmd{
		Name:    "length",
		Aliases: []string{"len"},
		Help:    "",
		Func: MustBeOpen(func(c *ishell.Context) {
			s := ShellFrom(c)
			l, err := s.Device.StorageLength()
			if err != nil {
				reportErr(c, err)
				return
			}
			text := fmt.Sprintf("%d samples (%s)", l.Seconds(), time.Duration(l.Seconds())*time.Second)
			s.Print(os.Stdout, text, map[string]uint32{"count": l.Count, "seconds": l.Seconds()})
		}),
	}

	// StartTimeCmd queries the recording start time.
	StartTimeCmd = ishell.Cmd{
		Name:    "starttime",
		Aliases: []string{"start"},
		Help:    "",
		Func: MustBeOpen(func(c *ishell.Context) {
			s := ShellFrom(c)
			start, err := s.Device.StorageStartTime(time.Local)
			if err != nil {
				reportErr(c, err)
				return
			}
			text := start.Format(sink.TimeLayout)
			s.Print(os.Stdout, text, map[string]string{"start": text})
		}),
	}

	// DownloadCmd downloads the recording.
	DownloadCmd = ishell.Cmd{
		Name:    "download",
		Aliases: []string{"dl"},
		Help:    "[COUNT]",
		Func: MustBeOpen(func(c *ishell.Context) {
			s := ShellFrom(c)
			count := s.Config.Count
			if len(c.Args) > 0 {
				val, err := strconv.ParseUint(c.Args[0], 10, 32)
				if err != nil {
					c.Err(fmt.Errorf("Invalid COUNT: %v", err))
					return
				}
				count = uint(val)
			}
			ctx, cancel := fx.HandleSignals(context.Background())
			defer cancel()
			session, err := s.Download(ctx, count, s.Printer(os.Stdout))
			if err != nil {
				reportErr(c, err)
				return
			}
			c.Printf("%d samples downloaded\n", session.Received())
		}),
	}
)
