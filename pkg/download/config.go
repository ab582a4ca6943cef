// Package download wires a device session or a replay to the configured sinks.
package download

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config defines what to download and where samples go.
type Config struct {
	// Device is the serial device path.
	Device string
	// Count, if non-zero, replaces the length reported by the device.
	Count uint
	// OutputDir is where files are created.
	OutputDir string

	Console bool
	Text    bool
	CSV     bool
	Plot    bool
	// Render runs gnuplot on the plot report when available.
	Render bool

	// MQTTURL publishes samples to a broker, e.g. mqtt://localhost:1883/cms50f/
	MQTTURL string
	// WebsocketURL streams samples to a websocket endpoint.
	WebsocketURL string

	// Replay reads samples from a recorded CSV file instead of the device.
	Replay string
}

// ErrCountRange indicates a sample count the protocol can't carry.
var ErrCountRange = errors.New("count out of range")

// configFile is the TOML file given by -config.
var configFile string

var defaultConfig = Config{
	Device:    "/dev/tty.usbserial-0001",
	OutputDir: ".",
	Console:   true,
	Text:      true,
	CSV:       true,
	Render:    true,
}

func init() {
	if val := os.Getenv("CMS50F_DEVICE"); val != "" {
		defaultConfig.Device = val
	}
	if val := os.Getenv("CMS50F_OUTPUT_DIR"); val != "" {
		defaultConfig.OutputDir = val
	}
	if val := os.Getenv("CMS50F_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	if val := os.Getenv("CMS50F_WS_URL"); val != "" {
		defaultConfig.WebsocketURL = val
	}
	configFile = os.Getenv("CMS50F_CONFIG")
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "device", defaultConfig.Device, "Serial device of the oximeter.")
	flag.UintVar(&defaultConfig.Count, "c", defaultConfig.Count, "Force the number of samples to download, 0 to ask the device.")
	flag.StringVar(&defaultConfig.OutputDir, "out", defaultConfig.OutputDir, "Output directory.")
	flag.BoolVar(&defaultConfig.Console, "console", defaultConfig.Console, "Print samples to stdout.")
	flag.BoolVar(&defaultConfig.Text, "text", defaultConfig.Text, "Write a text file.")
	flag.BoolVar(&defaultConfig.CSV, "csv", defaultConfig.CSV, "Write a CSV file.")
	flag.BoolVar(&defaultConfig.Plot, "plot", defaultConfig.Plot, "Write a gnuplot report.")
	flag.BoolVar(&defaultConfig.Render, "render", defaultConfig.Render, "Render the gnuplot report if gnuplot is installed.")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL to publish samples.")
	flag.StringVar(&defaultConfig.WebsocketURL, "ws", defaultConfig.WebsocketURL, "Websocket URL to stream samples.")
	flag.StringVar(&defaultConfig.Replay, "replay", defaultConfig.Replay, "Replay a recorded CSV file instead of downloading.")
	flag.StringVar(&configFile, "config", configFile, "TOML config file, flags given explicitly take precedence.")
}

// Load creates a config from defaults, the config file and explicit flags.
func Load() (*Config, error) {
	conf := NewConfig()
	if configFile != "" {
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) {
			explicit[f.Name] = true
		})
		if err := conf.loadFile(configFile, explicit); err != nil {
			return nil, err
		}
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks the values a flag or a file can't constrain.
func (c *Config) Validate() error {
	if c.Count > math.MaxUint32 {
		return fmt.Errorf("%w: %d exceeds %d", ErrCountRange, c.Count, uint64(math.MaxUint32))
	}
	return nil
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

type fileConfig struct {
	Device    string `toml:"device"`
	Count     uint   `toml:"count"`
	OutputDir string `toml:"output_dir"`
	Console   bool   `toml:"console"`
	Text      bool   `toml:"text"`
	CSV       bool   `toml:"csv"`
	Plot      bool   `toml:"plot"`
	Render    bool   `toml:"render"`
	MQTT      string `toml:"mqtt_url"`
	Websocket string `toml:"websocket_url"`
}

// LoadFile overlays the settings defined in a TOML file.
func (c *Config) LoadFile(path string) error {
	return c.loadFile(path, nil)
}

// loadFile skips the keys whose flag is in keep.
func (c *Config) loadFile(path string, keep map[string]bool) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return fmt.Errorf("load config: unknown keys: %s", strings.Join(keys, ", "))
	}
	defined := func(key, flagName string) bool {
		return meta.IsDefined(key) && !keep[flagName]
	}
	strs := []struct {
		key, flag string
		dst       *string
		val       string
	}{
		{"device", "device", &c.Device, raw.Device},
		{"output_dir", "out", &c.OutputDir, raw.OutputDir},
		{"mqtt_url", "mqtt", &c.MQTTURL, raw.MQTT},
		{"websocket_url", "ws", &c.WebsocketURL, raw.Websocket},
	}
	for _, s := range strs {
		if defined(s.key, s.flag) {
			*s.dst = strings.TrimSpace(s.val)
		}
	}
	bools := []struct {
		key string
		dst *bool
		val bool
	}{
		{"console", &c.Console, raw.Console},
		{"text", &c.Text, raw.Text},
		{"csv", &c.CSV, raw.CSV},
		{"plot", &c.Plot, raw.Plot},
		{"render", &c.Render, raw.Render},
	}
	for _, b := range bools {
		if defined(b.key, b.key) {
			*b.dst = b.val
		}
	}
	if defined("count", "c") {
		c.Count = raw.Count
	}
	return nil
}
