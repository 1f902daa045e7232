package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/fedreturn/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Spending SpendingConfig `yaml:"spending" mapstructure:"spending"`
	District DistrictConfig `yaml:"district" mapstructure:"district"`
	Period   PeriodConfig   `yaml:"period" mapstructure:"period"`
	Tax      TaxConfig      `yaml:"tax" mapstructure:"tax"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// SpendingConfig configures the USAspending client.
type SpendingConfig struct {
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	Scope            string `yaml:"scope" mapstructure:"scope"`
	Country          string `yaml:"country" mapstructure:"country"`
	UserAgent        string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts      int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int    `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	DebugResponse    bool   `yaml:"debug_response" mapstructure:"debug_response"`
}

// Timeout returns the per-request timeout.
func (s SpendingConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// DistrictConfig selects the district and optional extra definitions.
type DistrictConfig struct {
	ID   string `yaml:"id" mapstructure:"id"`
	File string `yaml:"file" mapstructure:"file"`
}

// PeriodConfig is the default action-date window.
type PeriodConfig struct {
	StartDate string `yaml:"start_date" mapstructure:"start_date"`
	EndDate   string `yaml:"end_date" mapstructure:"end_date"`
}

// Range parses the configured window.
func (p PeriodConfig) Range() (model.DateRange, error) {
	return model.ParseDateRange(p.StartDate, p.EndDate)
}

// TaxConfig points at an optional county tax file. Empty File uses the built-in figures.
type TaxConfig struct {
	File         string `yaml:"file" mapstructure:"file"`
	Sheet        string `yaml:"sheet" mapstructure:"sheet"`
	CountyColumn string `yaml:"county_column" mapstructure:"county_column"`
	AmountColumn string `yaml:"amount_column" mapstructure:"amount_column"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MetricsConfig toggles Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FEDRETURN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one so AutomaticEnv can override it on Unmarshal.
	v.SetDefault("spending.base_url", "https://api.usaspending.gov")
	v.SetDefault("spending.scope", "recipient_location")
	v.SetDefault("spending.country", "USA")
	v.SetDefault("spending.user_agent", "fedreturn/1.0")
	v.SetDefault("spending.timeout_secs", 30)
	v.SetDefault("spending.max_attempts", 1)
	v.SetDefault("spending.initial_backoff_ms", 500)
	v.SetDefault("spending.debug_response", false)
	v.SetDefault("district.id", "NY-21")
	v.SetDefault("district.file", "")
	v.SetDefault("period.start_date", "2023-01-01")
	v.SetDefault("period.end_date", "2023-12-31")
	v.SetDefault("tax.file", "")
	v.SetDefault("tax.sheet", "")
	v.SetDefault("tax.county_column", "County")
	v.SetDefault("tax.amount_column", "Income Tax Paid")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("metrics.enabled", true)

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

// Validate checks the settings needed by a command mode ("report" or "serve").
func (c *Config) Validate(mode string) error {
	var errs []string

	if strings.TrimSpace(c.Spending.BaseURL) == "" {
		errs = append(errs, "spending.base_url is required")
	}
	if c.Spending.TimeoutSecs <= 0 {
		errs = append(errs, "spending.timeout_secs must be > 0")
	}
	if c.Spending.MaxAttempts < 1 || c.Spending.MaxAttempts > 10 {
		errs = append(errs, "spending.max_attempts must be between 1 and 10")
	}
	if c.Spending.InitialBackoffMs < 0 {
		errs = append(errs, "spending.initial_backoff_ms must be >= 0")
	}
	if c.Tax.File != "" && (c.Tax.CountyColumn == "" || c.Tax.AmountColumn == "") {
		errs = append(errs, "tax.county_column and tax.amount_column are required with tax.file")
	}

	switch mode {
	case "report":
		if strings.TrimSpace(c.District.ID) == "" {
			errs = append(errs, "district.id is required")
		}
		if _, err := c.Period.Range(); err != nil {
			errs = append(errs, "period: "+err.Error())
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
