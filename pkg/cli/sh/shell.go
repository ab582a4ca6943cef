package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
	"github.com/robotalks/cms50f.go/pkg/download"
	"github.com/robotalks/cms50f.go/pkg/sink"
	"github.com/robotalks/cms50f.go/pkg/sink/websocket"
)

// Shell provides ishell backed interactive shell driving one device.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool

	Shell  *ishell.Shell
	Config *download.Config
	Opener cms50f.Opener
	Device *cms50f.Device
}

const (
	shellKey       = "$shell"
	unopenedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
		&ConfigureCmd,
		&SilenceCmd,
		&LengthCmd,
		&StartTimeCmd,
		&DownloadCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *download.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
		Opener: cms50f.OpenSerial,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unopenedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command func requires an open device.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if !ShellFrom(c).Device.IsOpen() {
			c.Err(fmt.Errorf("no device open"))
			return
		}
		fn(c)
	}
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

// OpenDevice opens the device with name, closing the current one.
func (s *Shell) OpenDevice(name string) error {
	dev, err := cms50f.OpenWith(name, s.Opener)
	if err != nil {
		return err
	}
	s.CloseDevice()
	s.Device = dev
	s.setPrompt(fmt.Sprintf("%s > ", name))
	return nil
}

// CloseDevice closes current device.
func (s *Shell) CloseDevice() error {
	if s.Device == nil {
		return nil
	}
	err := s.Device.Close()
	s.Device = nil
	s.setPrompt(unopenedPrompt)
	return err
}

func (s *Shell) setPrompt(prompt string) {
	if s.Shell != nil {
		s.Shell.SetPrompt(prompt)
	}
}

// Silence stops both storage and realtime streaming.
func (s *Shell) Silence() error {
	if err := s.Device.StopStorageStreaming(); err != nil {
		return err
	}
	return s.Device.StopRealtimeStreaming()
}

// Download runs a whole session on the open device. Samples go to out
// and to the file sinks of the config. A non-zero count replaces the
// device reported length.
func (s *Shell) Download(ctx context.Context, count uint, out cms50f.Sink) (*cms50f.Session, error) {
	conf := *s.Config
	conf.Console = false
	sinks, stats, err := conf.NewSink()
	if err != nil {
		return nil, err
	}
	sinks = append(sinks, sink.Nop(out))
	session := cms50f.NewSession(s.Device)
	session.OverrideCount = uint32(count)
	session.Location = time.Local
	err = session.Run(ctx, sinks)
	if closeErr := sinks.Close(); err == nil {
		err = closeErr
	}
	glog.Info(stats.Summary())
	return session, err
}

// Printer prints samples in text or JSON.
func (s *Shell) Printer(w io.Writer) cms50f.Sink {
	return cms50f.SinkFunc(func(smp cms50f.Sample) {
		if !s.OutputJSON {
			io.WriteString(w, sink.FormatLine(smp))
			return
		}
		out, err := json.Marshal(websocket.MessageFrom(smp))
		if err != nil {
			glog.Errorf("encode sample: %v", err)
			return
		}
		fmt.Fprintln(w, string(out))
	})
}

// Print prints v as JSON when OutputJSON is set, or text otherwise.
func (s *Shell) Print(w io.Writer, text string, v interface{}) error {
	if !s.OutputJSON {
		_, err := fmt.Fprintln(w, text)
		return err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.CloseDevice()
	if s.AutoOpen && s.Config.Device != "" {
		if s.Interactive {
			s.Shell.Printf("Opening %s ...\n", s.Config.Device)
		}
		if err := s.OpenDevice(s.Config.Device); err != nil {
			log.Fatalf("open %q failed: %v", s.Config.Device, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf, err := download.Load()
	if err != nil {
		log.Fatalln(err)
	}
	New(conf).WithAutoOpen(true).Run(flag.Args()...)
}
