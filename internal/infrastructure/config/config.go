package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Workbook WorkbookConfig
	Forecast ForecastConfig
	Redis    RedisConfig
	Archive  ArchiveConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string `validate:"required"`
	Env  string `validate:"oneof=development testing staging production"`
	Port string `validate:"required,numeric"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
	Output string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	CORSOrigins     []string
	// ExportRateLimit caps report exports per client per minute; 0 disables the cap
	ExportRateLimit int `validate:"gte=0"`
}

// WorkbookConfig locates the source workbook and controls how its snapshot is kept
type WorkbookConfig struct {
	Path            string        `validate:"required"`
	CacheTTL        time.Duration `validate:"gte=0"`
	StrictDates     bool
	RefreshSchedule string
	RefreshEnabled  bool
}

// ForecastConfig holds forecast defaults
type ForecastConfig struct {
	DefaultHorizon        int           `validate:"gte=7,lte=90"`
	DefaultConfidence     float64       `validate:"gte=0.8,lte=0.99"`
	ChangepointPriorScale float64       `validate:"gt=0"`
	CacheTTL              time.Duration `validate:"gte=0"`
}

// RedisConfig holds Redis connection settings for the forecast cache
type RedisConfig struct {
	Enabled  bool
	Host     string `validate:"required_if=Enabled true"`
	Port     int    `validate:"gte=0,lte=65535"`
	Password string
	DB       int `validate:"gte=0"`
}

// ArchiveConfig holds the report archive settings. The s3 driver targets any
// S3-compatible store; the local driver writes under Directory.
type ArchiveConfig struct {
	Enabled      bool
	Driver       string `validate:"oneof=s3 local"`
	Directory    string `validate:"required_if=Driver local"`
	Endpoint     string
	Region       string `validate:"required_if=Enabled true Driver s3"`
	Bucket       string `validate:"required_if=Enabled true Driver s3"`
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// Load loads configuration from a .env file, config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with PHARMA_ prefix (e.g., PHARMA_WORKBOOK_PATH)
// 2. .env entries that are not already set in the environment
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pharmacy-analytics")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("PHARMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("workbook.strict_dates", true)
	v.SetDefault("workbook.refresh_enabled", true)
	v.SetDefault("http.export_rate_limit", 30)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			CORSOrigins:     v.GetStringSlice("http.cors_origins"),
			ExportRateLimit: v.GetInt("http.export_rate_limit"),
		},
		Workbook: WorkbookConfig{
			Path:            v.GetString("workbook.path"),
			CacheTTL:        v.GetDuration("workbook.cache_ttl"),
			StrictDates:     v.GetBool("workbook.strict_dates"),
			RefreshSchedule: v.GetString("workbook.refresh_schedule"),
			RefreshEnabled:  v.GetBool("workbook.refresh_enabled"),
		},
		Forecast: ForecastConfig{
			DefaultHorizon:        v.GetInt("forecast.default_horizon"),
			DefaultConfidence:     v.GetFloat64("forecast.default_confidence"),
			ChangepointPriorScale: v.GetFloat64("forecast.changepoint_prior_scale"),
			CacheTTL:              v.GetDuration("forecast.cache_ttl"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Archive: ArchiveConfig{
			Enabled:      v.GetBool("archive.enabled"),
			Driver:       v.GetString("archive.driver"),
			Directory:    v.GetString("archive.directory"),
			Endpoint:     v.GetString("archive.endpoint"),
			Region:       v.GetString("archive.region"),
			Bucket:       v.GetString("archive.bucket"),
			AccessKey:    v.GetString("archive.access_key"),
			SecretKey:    v.GetString("archive.secret_key"),
			UsePathStyle: v.GetBool("archive.use_path_style"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "pharmacy-analytics"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Workbook.Path == "" {
		cfg.Workbook.Path = "data/pharmacy.xlsx"
	}
	if cfg.Workbook.CacheTTL == 0 {
		cfg.Workbook.CacheTTL = time.Hour
	}
	if cfg.Workbook.RefreshSchedule == "" {
		cfg.Workbook.RefreshSchedule = "@every 1h"
	}
	if cfg.Forecast.DefaultHorizon == 0 {
		cfg.Forecast.DefaultHorizon = 30
	}
	if cfg.Forecast.DefaultConfidence == 0 {
		cfg.Forecast.DefaultConfidence = 0.95
	}
	if cfg.Forecast.ChangepointPriorScale == 0 {
		cfg.Forecast.ChangepointPriorScale = 0.05
	}
	if cfg.Forecast.CacheTTL == 0 {
		cfg.Forecast.CacheTTL = time.Hour
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Archive.Driver == "" {
		cfg.Archive.Driver = "s3"
	}
	if cfg.Archive.Directory == "" {
		cfg.Archive.Directory = "data/archive"
	}
	if cfg.Archive.Region == "" {
		cfg.Archive.Region = "us-east-1"
	}
}

var validate = validator.New()

// validate performs validation on the configuration
func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid configuration: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		for _, origin := range c.HTTP.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("http.cors_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Archive.Enabled && c.Archive.Driver == "s3" && (c.Archive.AccessKey == "") != (c.Archive.SecretKey == "") {
			return fmt.Errorf("archive.access_key and archive.secret_key must be set together")
		}
	}

	return nil
}

// Addr returns the host:port of the Redis server
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
