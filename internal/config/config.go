package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Process ProcessConfig `yaml:"process" mapstructure:"process"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Export  ExportConfig  `yaml:"export" mapstructure:"export"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ProcessConfig configures record extraction.
type ProcessConfig struct {
	Concurrency  int         `yaml:"concurrency" mapstructure:"concurrency"`
	CountryScale ScaleConfig `yaml:"country_scale" mapstructure:"country_scale"`
}

// ScaleConfig sets the country weight policy. A zero divisor scales by the
// record's own country occurrences.
type ScaleConfig struct {
	Divisor int     `yaml:"divisor" mapstructure:"divisor"`
	Factor  float64 `yaml:"factor" mapstructure:"factor"`
}

// FetchConfig configures SRU search downloads.
type FetchConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries     int     `yaml:"retries" mapstructure:"retries"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	SortKey     string  `yaml:"sort_key" mapstructure:"sort_key"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ExportConfig sets the default output format.
type ExportConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AUTHORITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("process.concurrency", 4)
	v.SetDefault("process.country_scale.divisor", 0)
	v.SetDefault("process.country_scale.factor", 10.0)
	v.SetDefault("fetch.base_url", "https://viaf.org/viaf/search")
	v.SetDefault("fetch.user_agent", "authority-cli/1.0")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.retries", 3)
	v.SetDefault("fetch.rate_limit", 2.0)
	v.SetDefault("fetch.sort_key", "holdingscount")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "authority.db")
	v.SetDefault("export.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "process", "fetch", "store" and "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Process.Concurrency < 1 || c.Process.Concurrency > 64 {
		problems = append(problems, "process.concurrency must be between 1 and 64")
	}
	if c.Process.CountryScale.Divisor < 0 {
		problems = append(problems, "process.country_scale.divisor must be >= 0")
	}
	if c.Process.CountryScale.Factor < 0 {
		problems = append(problems, "process.country_scale.factor must be >= 0")
	}

	switch mode {
	case "process":
	case "fetch":
		if c.Fetch.BaseURL == "" {
			problems = append(problems, "fetch.base_url is required")
		}
		if c.Fetch.Retries < 0 {
			problems = append(problems, "fetch.retries must be >= 0")
		}
	case "store":
		problems = append(problems, c.storeProblems()...)
	case "serve":
		problems = append(problems, c.storeProblems()...)
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.New(fmt.Sprintf("config: unknown mode %q", mode))
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) storeProblems() []string {
	var problems []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	return problems
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
