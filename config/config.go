package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/user/blesniffer/sniffer"
)

// Config is the full process configuration. Values come from defaults,
// then an optional YAML file, then SNIFFER_* environment variables, the
// later source winning. Load returns the struct instead of filling a
// package global so the wiring in main stays explicit.
type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Serial   SerialConfig   `mapstructure:"serial"`
	Buffer   BufferConfig   `mapstructure:"buffer"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
	Scanner  ScannerConfig  `mapstructure:"scanner"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Report   ReportConfig   `mapstructure:"report"`
}

// SerialConfig names the capture stream destination. "-" means stdout.
type SerialConfig struct {
	Path string `mapstructure:"path"`
}

type BufferConfig struct {
	Capacity int `mapstructure:"capacity"`
}

type ConsumerConfig struct {
	ActiveDelay  time.Duration `mapstructure:"active_delay"`
	IdleDelay    time.Duration `mapstructure:"idle_delay"`
	StatusPeriod time.Duration `mapstructure:"status_period"`
}

type ScannerConfig struct {
	Devices  int           `mapstructure:"devices"`
	Interval time.Duration `mapstructure:"interval"`
	Active   bool          `mapstructure:"active"`
	Seed     int64         `mapstructure:"seed"`
}

type MonitorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// ReportConfig names session report destinations written at shutdown.
// Empty paths disable the corresponding export.
type ReportConfig struct {
	JSONPath string `mapstructure:"json_path"`
	CSVPath  string `mapstructure:"csv_path"`
}

// Load reads the configuration. With an explicit path the file must
// exist and parse; with an empty path a sniffer.yaml in the working
// directory is used when present, defaults otherwise.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("sniffer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("SNIFFER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Buffer.Capacity <= 0 {
		return fmt.Errorf("buffer.capacity must be positive, got %d", c.Buffer.Capacity)
	}
	if c.Consumer.ActiveDelay < 0 || c.Consumer.IdleDelay < 0 || c.Consumer.StatusPeriod < 0 {
		return fmt.Errorf("consumer delays must not be negative")
	}
	if c.Scanner.Devices <= 0 {
		return fmt.Errorf("scanner.devices must be positive, got %d", c.Scanner.Devices)
	}
	if c.Monitor.Enabled && c.Monitor.Addr == "" {
		return fmt.Errorf("monitor.addr required when the monitor is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("serial.path", "-")
	v.SetDefault("buffer.capacity", sniffer.DefaultBufferCapacity)
	v.SetDefault("consumer.active_delay", "2ms")
	v.SetDefault("consumer.idle_delay", "20ms")
	v.SetDefault("consumer.status_period", "10s")
	v.SetDefault("scanner.devices", 3)
	v.SetDefault("scanner.interval", "20ms")
	v.SetDefault("scanner.active", true)
	v.SetDefault("scanner.seed", 0)
	v.SetDefault("monitor.enabled", false)
	v.SetDefault("monitor.addr", ":8880")
	v.SetDefault("report.json_path", "")
	v.SetDefault("report.csv_path", "")
}
