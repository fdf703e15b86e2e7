package config

import "time"

// Default configuration values.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultStorageDriver = DriverMemory
	DefaultSQLitePath    = "travel-price-watch.db"

	DefaultPricingTimeout    = 30 * time.Second
	DefaultPricingMaxRetries = 3
	DefaultPricingRetryDelay = time.Second

	DefaultNotificationTimeout = 10 * time.Second

	DefaultEngineConcurrency = 1

	DefaultCronSchedule = "0 */6 * * *"
	DefaultTimezone     = "UTC"

	DefaultServerAddress = ":8080"

	EnvPrefix = "TRACKER"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)
