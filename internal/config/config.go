// Package config loads and validates service configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ymkfssy/shuangse-sub001/internal/extract"
	"github.com/ymkfssy/shuangse-sub001/internal/generator"
	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	DB        DBConfig        `mapstructure:"db"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Sources   []SourceConfig  `mapstructure:"sources"`
	Synthetic SyntheticConfig `mapstructure:"synthetic"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig guards the administrative ingestion trigger.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN            string `mapstructure:"dsn"`
	MaxConns       int32  `mapstructure:"max_conns"`
	MinConns       int32  `mapstructure:"min_conns"`
	ConnectRetries uint64 `mapstructure:"connect_retries"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

// StorageConfig selects the store driver.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

// FetchConfig paces and bounds source requests.
type FetchConfig struct {
	MinDelayMs          int                     `mapstructure:"min_delay_ms"`
	MaxDelayMs          int                     `mapstructure:"max_delay_ms"`
	TimeoutSeconds      int                     `mapstructure:"timeout_seconds"`
	StageTimeoutSeconds int                     `mapstructure:"stage_timeout_seconds"`
	RatePerSecond       float64                 `mapstructure:"rate_per_second"`
	Burst               int                     `mapstructure:"burst"`
	Profiles            []lottery.HeaderProfile `mapstructure:"profiles"`
}

// SourceConfig declares one fallback stage.
type SourceConfig struct {
	Name        string   `mapstructure:"name"`
	URL         string   `mapstructure:"url"`
	Referer     string   `mapstructure:"referer"`
	Extractors  []string `mapstructure:"extractors"`
	NewestFirst bool     `mapstructure:"newest_first"`
	Window      int      `mapstructure:"window"`
}

// SyntheticConfig controls the last-resort backfill.
type SyntheticConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Count   int    `mapstructure:"count"`
	Seed    uint64 `mapstructure:"seed"`
}

// GeneratorConfig bounds generate requests.
type GeneratorConfig struct {
	MaxAttempts int    `mapstructure:"max_attempts"`
	MaxCount    int    `mapstructure:"max_count"`
	Seed        uint64 `mapstructure:"seed"`
}

// ScheduleConfig drives periodic ingestion in serve mode. Zero disables it.
type ScheduleConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from an optional .env file, disk and environment.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("SHUANGSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 120)
	v.SetDefault("auth.enabled", false)
	// Explicit defaults so AutomaticEnv can override these keys.
	v.SetDefault("auth.api_key", "")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("db.connect_retries", 5)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("fetch.min_delay_ms", 500)
	v.SetDefault("fetch.max_delay_ms", 2000)
	v.SetDefault("fetch.timeout_seconds", 15)
	v.SetDefault("fetch.stage_timeout_seconds", 20)
	v.SetDefault("fetch.rate_per_second", 1.0)
	v.SetDefault("fetch.burst", 1)
	v.SetDefault("synthetic.enabled", true)
	v.SetDefault("synthetic.count", 30)
	v.SetDefault("synthetic.seed", 0)
	v.SetDefault("generator.max_attempts", 1000)
	v.SetDefault("generator.max_count", 10)
	v.SetDefault("generator.seed", 0)
	v.SetDefault("schedule.interval", "6h")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
}

// DefaultSources is the built-in fallback chain, most structured source first.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:       "500-history",
			URL:        "https://datachart.500.com/ssq/history/newinc/history.php",
			Referer:    "https://datachart.500.com/ssq/",
			Extractors: []string{extract.StrategyDateIssue},
		},
		{
			Name:       "zhcw-list",
			URL:        "https://www.zhcw.com/kjxx/ssq/",
			Referer:    "https://www.zhcw.com/",
			Extractors: []string{extract.StrategyIssueDate, extract.StrategyClass},
		},
		{
			Name:        "cwl-notice",
			URL:         "https://www.cwl.gov.cn/ygkj/wqkjgg/ssq/",
			Referer:     "https://www.cwl.gov.cn/",
			Extractors:  []string{extract.StrategyClass},
			NewestFirst: true,
		},
	}
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Storage.Driver)
	}
	if c.Fetch.MinDelayMs < 0 || c.Fetch.MaxDelayMs < c.Fetch.MinDelayMs {
		return fmt.Errorf("fetch delays must satisfy 0 <= min_delay_ms <= max_delay_ms")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.RatePerSecond < 0 {
		return fmt.Errorf("fetch.rate_per_second must be >= 0")
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if c.Generator.MaxAttempts <= 0 {
		return fmt.Errorf("generator.max_attempts must be > 0")
	}
	if c.Generator.MaxCount < 1 || c.Generator.MaxCount > generator.CountLimit {
		return fmt.Errorf("generator.max_count must be in [1,%d]", generator.CountLimit)
	}
	if c.Synthetic.Enabled && c.Synthetic.Count <= 0 {
		return fmt.Errorf("synthetic.count must be > 0 when synthetic is enabled")
	}
	if c.Schedule.Interval < 0 {
		return fmt.Errorf("schedule.interval must be >= 0")
	}
	return nil
}

func (c Config) validateSources() error {
	seen := make(map[string]bool, len(c.Sources))
	for i, src := range c.Sources {
		if src.Name == "" || src.URL == "" {
			return fmt.Errorf("sources[%d]: name and url are required", i)
		}
		if seen[src.Name] {
			return fmt.Errorf("sources[%d]: duplicate name %q", i, src.Name)
		}
		seen[src.Name] = true
		if len(src.Extractors) == 0 {
			return fmt.Errorf("sources[%d]: at least one extractor is required", i)
		}
		for _, name := range src.Extractors {
			if _, err := extract.New(name); err != nil {
				return fmt.Errorf("sources[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// FetchTimeout returns the per-request timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// StageTimeout returns the per-stage bound, covering the pacing delay and
// the request.
func (c Config) StageTimeout() time.Duration {
	if c.Fetch.StageTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Fetch.StageTimeoutSeconds) * time.Second
}
