package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/danmuck/suitcase/internal/codec"
	"github.com/danmuck/suitcase/internal/codec/frame"
	"github.com/danmuck/suitcase/internal/logging"
	"github.com/pelletier/go-toml/v2"
)

const DefaultPath = "suitcase.toml"

// Config is the suitcase.toml layout.
type Config struct {
	MaxPayloadBytes uint64        `toml:"max_payload_bytes"`
	Log             LogConfig     `toml:"log"`
	Metrics         MetricsConfig `toml:"metrics"`
}

type LogConfig struct {
	Level     string `toml:"level"`
	Timestamp bool   `toml:"timestamp"`
	NoColor   bool   `toml:"no_color"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

func Default() Config {
	return Config{
		MaxPayloadBytes: frame.DefaultLimits().MaxPayloadBytes,
		Log: LogConfig{
			Level:     "info",
			Timestamp: true,
		},
	}
}

// Load reads path over the defaults. Keys absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := loadToml(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func Validate(cfg Config) error {
	if cfg.MaxPayloadBytes > math.MaxInt {
		return fmt.Errorf("max_payload_bytes %d exceeds addressable size", cfg.MaxPayloadBytes)
	}
	if strings.TrimSpace(cfg.Log.Level) != "" {
		if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
			return fmt.Errorf("unknown log level %q", cfg.Log.Level)
		}
	}
	return nil
}

func (c Config) Limits() frame.Limits {
	return frame.Limits{MaxPayloadBytes: c.MaxPayloadBytes}
}

// Options builds codec options for the default registry. A nil observer
// leaves calls unobserved.
func (c Config) Options(observer codec.Observer) codec.Options {
	opts := codec.DefaultOptions()
	opts.Limits = c.Limits()
	opts.Observer = observer
	return opts
}

func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig(logging.ProfileRuntime)
	if lvl, ok := logging.ParseLevel(c.Log.Level); ok {
		cfg.Level = lvl
	}
	cfg.Timestamp = c.Log.Timestamp
	cfg.NoColor = c.Log.NoColor
	return cfg
}
