// Package config loads the tracker configuration from YAML, .env and
// TRACKER_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Configuration is the root of the tracker configuration.
type Configuration struct {
	Logging       LoggingConfig       `mapstructure:"logging"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Pricing       PricingConfig       `mapstructure:"pricing"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Engine        EngineConfig        `mapstructure:"engine"`
	Schedule      ScheduleConfig      `mapstructure:"schedule"`
	Server        ServerConfig        `mapstructure:"server"`
	Fixtures      FixturesConfig      `mapstructure:"fixtures"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputFile string `mapstructure:"output_file"` // optional file output
}

// StorageConfig selects the product database and the optional analytics store.
type StorageConfig struct {
	Driver        string `mapstructure:"driver"` // memory, postgres, sqlite
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"` // price history goes here when set
	Migrate       bool   `mapstructure:"migrate"`
}

// PricingConfig configures the pricing gateway client.
type PricingConfig struct {
	FlightEndpoint    string        `mapstructure:"flight_endpoint"`
	HotelEndpoint     string        `mapstructure:"hotel_endpoint"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	FlightConcurrency int           `mapstructure:"flight_concurrency"` // 0 = unbounded
	HotelConcurrency  int           `mapstructure:"hotel_concurrency"`  // 0 = unbounded
}

// NotificationsConfig configures the push and email channels.
type NotificationsConfig struct {
	Endpoint       string        `mapstructure:"endpoint"` // REST push+email service
	APIKey         string        `mapstructure:"api_key"`
	PushGatewayURL string        `mapstructure:"push_gateway_url"` // ws:// push gateway, overrides REST push
	Timeout        time.Duration `mapstructure:"timeout"`
	DryRun         bool          `mapstructure:"dry_run"` // log instead of sending
}

// EngineConfig tunes the run coordinator.
type EngineConfig struct {
	Concurrency int `mapstructure:"concurrency"` // users processed in parallel
}

// ScheduleConfig configures the long-running server's trigger.
type ScheduleConfig struct {
	Cron       string `mapstructure:"cron"`
	Timezone   string `mapstructure:"timezone"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

// ServerConfig configures the HTTP status server.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// FixturesConfig points at a YAML file seeding users, items and canned quotes.
type FixturesConfig struct {
	Path string `mapstructure:"path"`
}

// LoadConfiguration reads configPath (optional) and environment overrides.
// envFile, when non-empty, is loaded into the process environment first;
// a missing envFile is ignored.
func LoadConfiguration(configPath, envFile string) (*Configuration, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configPath, err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := configuration.Validate(); err != nil {
		return nil, err
	}

	return &configuration, nil
}

// setDefaults registers every key so environment overrides are picked up
// even when the config file omits the key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
	v.SetDefault("logging.output_file", "")

	v.SetDefault("storage.driver", DefaultStorageDriver)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.sqlite_path", DefaultSQLitePath)
	v.SetDefault("storage.clickhouse_dsn", "")
	v.SetDefault("storage.migrate", true)

	v.SetDefault("pricing.flight_endpoint", "")
	v.SetDefault("pricing.hotel_endpoint", "")
	v.SetDefault("pricing.api_key", "")
	v.SetDefault("pricing.timeout", DefaultPricingTimeout)
	v.SetDefault("pricing.max_retries", DefaultPricingMaxRetries)
	v.SetDefault("pricing.retry_delay", DefaultPricingRetryDelay)
	v.SetDefault("pricing.flight_concurrency", 0)
	v.SetDefault("pricing.hotel_concurrency", 0)

	v.SetDefault("notifications.endpoint", "")
	v.SetDefault("notifications.api_key", "")
	v.SetDefault("notifications.push_gateway_url", "")
	v.SetDefault("notifications.timeout", DefaultNotificationTimeout)
	v.SetDefault("notifications.dry_run", false)

	v.SetDefault("engine.concurrency", DefaultEngineConcurrency)

	v.SetDefault("schedule.cron", DefaultCronSchedule)
	v.SetDefault("schedule.timezone", DefaultTimezone)
	v.SetDefault("schedule.run_on_start", false)

	v.SetDefault("server.address", DefaultServerAddress)

	v.SetDefault("fixtures.path", "")
}

// Validate checks the configuration for consistency.
func (c *Configuration) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging.format: %q", c.Logging.Format)
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres driver")
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("invalid storage.driver: %q", c.Storage.Driver)
	}

	if c.Fixtures.Path == "" && (c.Pricing.FlightEndpoint == "" || c.Pricing.HotelEndpoint == "") {
		return errors.New("pricing.flight_endpoint and pricing.hotel_endpoint are required unless fixtures.path provides quotes")
	}
	if c.Pricing.MaxRetries < 0 {
		return fmt.Errorf("pricing.max_retries must be >= 0, got %d", c.Pricing.MaxRetries)
	}
	if c.Pricing.FlightConcurrency < 0 || c.Pricing.HotelConcurrency < 0 {
		return errors.New("pricing concurrency limits must be >= 0")
	}

	if !c.Notifications.DryRun && c.Notifications.Endpoint == "" {
		return errors.New("notifications.endpoint is required unless notifications.dry_run is set")
	}

	if c.Engine.Concurrency < 1 {
		return fmt.Errorf("engine.concurrency must be >= 1, got %d", c.Engine.Concurrency)
	}

	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return fmt.Errorf("invalid schedule.cron %q: %w", c.Schedule.Cron, err)
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}

	return nil
}
