package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Transport TransportConfig `yaml:"transport"`
	Sync      SyncConfig      `yaml:"sync"`
	Inbound   InboundConfig   `yaml:"inbound"`
	Votes     VotesConfig     `yaml:"votes"`
	Widgets   WidgetsConfig   `yaml:"widgets"`
	Platform  PlatformConfig  `yaml:"platform"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// StorageConfig locates the durable vote ledger.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// TransportConfig selects and tunes the pub/sub transport.
type TransportConfig struct {
	// Kind is "memory" or "redis".
	Kind  string      `yaml:"kind"`
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis transport settings.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	HistoryCap int    `yaml:"history_cap"`
}

// SyncConfig tunes the playback-synchronized release gate.
type SyncConfig struct {
	TickInterval Duration `yaml:"tick_interval"`
	CacheCap     int      `yaml:"cache_cap"`
}

// InboundConfig tunes the bounded queue between transport callbacks and
// the decode worker.
type InboundConfig struct {
	Capacity             int       `yaml:"capacity"`
	MaxPooledBufferBytes SizeBytes `yaml:"max_pooled_buffer_bytes"`
}

// VotesConfig controls vote retention.
type VotesConfig struct {
	Expiry    Duration `yaml:"expiry"`
	SweepCron string   `yaml:"sweep_cron"`
}

// WidgetsConfig tunes widget lifecycle timing.
type WidgetsConfig struct {
	GracePeriod       Duration `yaml:"grace_period"`
	InteractionWindow Duration `yaml:"interaction_window"`
}

// PlatformConfig holds the REST collaborator settings.
type PlatformConfig struct {
	AuthToken      string   `yaml:"auth_token"`
	RequestsPerSec float64  `yaml:"rps"`
	Burst          int      `yaml:"burst"`
	Timeout        Duration `yaml:"timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// InteractionsDir enables the JSON interactions sink when set.
	InteractionsDir string `yaml:"interactions_dir"`
}

// MetricsConfig controls the diagnostics HTTP listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly strings like "64MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*s = 0
		return nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		*s = SizeBytes(v)
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*s = SizeBytes(i)
		return nil
	}
	return fmt.Errorf("invalid size value: %q", node.Value)
}

func (s SizeBytes) Int64() int64 { return int64(s) }

// Duration is a wrapper around time.Duration that supports YAML parsing from strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = Duration(0)
		return nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		*d = Duration(td)
		return nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", node.Value)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }
