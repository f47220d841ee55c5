package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseCommandFlags defines and parses command-line flags and returns their
// values along with a map indicating which flags were explicitly set.
func ParseCommandFlags() (dbPath string, cfgPath string, setFlags map[string]bool) {
	dbPtr := flag.String("db", "./.ledger", "vote ledger DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	setFlags = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return *dbPtr, *cfgPtr, setFlags
}

// LoadEnvOverrides applies ENGAGEKIT_* environment overrides onto cfg and
// reports whether any were used.
func LoadEnvOverrides(cfg *Config) bool {
	envUsed := false

	if v := os.Getenv("ENGAGEKIT_DB_PATH"); v != "" {
		envUsed = true
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("ENGAGEKIT_TRANSPORT"); v != "" {
		envUsed = true
		cfg.Transport.Kind = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("ENGAGEKIT_REDIS_ADDR"); v != "" {
		envUsed = true
		cfg.Transport.Redis.Addr = v
	}
	if v := os.Getenv("ENGAGEKIT_REDIS_PASSWORD"); v != "" {
		envUsed = true
		cfg.Transport.Redis.Password = v
	}
	if v := os.Getenv("ENGAGEKIT_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Transport.Redis.DB = n
		}
	}
	if v := os.Getenv("ENGAGEKIT_SYNC_TICK"); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Sync.TickInterval = Duration(d)
		}
	}
	if v := os.Getenv("ENGAGEKIT_SYNC_CACHE_CAP"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Sync.CacheCap = n
		}
	}
	if v := os.Getenv("ENGAGEKIT_VOTE_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Votes.Expiry = Duration(d)
		}
	}
	if v := os.Getenv("ENGAGEKIT_VOTE_SWEEP_CRON"); v != "" {
		envUsed = true
		cfg.Votes.SweepCron = v
	}
	if v := os.Getenv("ENGAGEKIT_PLATFORM_TOKEN"); v != "" {
		envUsed = true
		cfg.Platform.AuthToken = v
	}
	if v := os.Getenv("ENGAGEKIT_PLATFORM_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			cfg.Platform.RequestsPerSec = f
		}
	}
	if v := os.Getenv("ENGAGEKIT_METRICS_ADDR"); v != "" {
		envUsed = true
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("ENGAGEKIT_LOG_LEVEL"); v != "" {
		envUsed = true
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ENGAGEKIT_INTERACTIONS_DIR"); v != "" {
		envUsed = true
		cfg.Logging.InteractionsDir = v
	}
	return envUsed
}

// LoadEffective loads config from the given path and applies environment
// overrides. A missing file yields a zero config rather than an error so
// env-only deployments work.
func LoadEffective(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, false, err
		}
		cfg = &Config{}
	}
	envUsed := LoadEnvOverrides(cfg)
	return cfg, envUsed, nil
}

// ResolveConfigPath decides the config file path using the flag-provided value
// and the environment variable `ENGAGEKIT_CONFIG` when the flag was not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("ENGAGEKIT_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
