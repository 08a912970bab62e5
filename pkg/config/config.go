package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Sharp feed (two-step auth, delta polling)
	SharpBaseURL         string
	SharpUsername        string
	SharpPassword        string
	SharpRequestTimeout  time.Duration
	SharpRenewThreshold  time.Duration // re-probe session when idle longer than this
	SharpRegisterWindow  time.Duration // second handshake step must land within this
	SharpStaleDropWindow time.Duration // drop feed items older than this
	SharpSportID         int

	// Exchange feed
	ExchangeBaseURL        string
	ExchangeAppKey         string
	ExchangeRequestTimeout time.Duration
	ExchangeMinVolumeSoon  float64 // ignore markets below this matched volume when starting within an hour

	// Soft-book aggregator feed
	SoftbookBaseURL        string
	SoftbookAPIKey         string
	SoftbookRequestTimeout time.Duration
	SoftbookBookmakers     string
	SoftbookSportKeys      string // comma-separated aggregator sport keys

	// Reconciliation
	FetchIntervalLive     time.Duration
	FetchIntervalToday    time.Duration
	FetchIntervalEarly    time.Duration
	FetchIntervalExchange time.Duration
	FetchIntervalSoftbook time.Duration
	SnapshotPath          string
	SnapshotInterval      time.Duration
	DegradedAfterFailures int

	// Arbitrage scanner
	ArbCommission    float64
	ArbMinMargin     float64
	ArbMaxMargin     float64
	ArbMinVolume     float64
	ArbMaxRecordAge  time.Duration
	ArbScanInterval  time.Duration
	ArbMinSanePrice  float64
	ArbSymmetric     bool

	// Steam detector
	SteamWindow           time.Duration
	SteamThresholdPP      float64 // implied-probability shift, percentage points
	SteamCooldown         time.Duration
	SteamRealertIncrement float64
	SteamMinPrice         float64
	SteamMaxPrice         float64
	SteamTickInterval     time.Duration
	SteamSweepInterval    time.Duration

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string

	// Notification sink
	NotifyMode    string // "redis" or "log"
	RedisAddr     string
	RedisPassword string
	RedisStream   string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		SharpBaseURL:         getEnvOrDefault("SHARP_BASE_URL", "https://webapi.sharpfeed.example/OddsService"),
		SharpUsername:        os.Getenv("SHARP_USERNAME"),
		SharpPassword:        os.Getenv("SHARP_PASSWORD"),
		SharpRequestTimeout:  getDurationOrDefault("SHARP_REQUEST_TIMEOUT", 30*time.Second),
		SharpRenewThreshold:  getDurationOrDefault("SHARP_RENEW_THRESHOLD", 4*time.Minute),
		SharpRegisterWindow:  getDurationOrDefault("SHARP_REGISTER_WINDOW", 60*time.Second),
		SharpStaleDropWindow: getDurationOrDefault("SHARP_STALE_DROP_WINDOW", 60*time.Second),
		SharpSportID:         getIntOrDefault("SHARP_SPORT_ID", 1),

		ExchangeBaseURL:        getEnvOrDefault("EXCHANGE_BASE_URL", "https://api.exchange.example"),
		ExchangeAppKey:         os.Getenv("EXCHANGE_APP_KEY"),
		ExchangeRequestTimeout: getDurationOrDefault("EXCHANGE_REQUEST_TIMEOUT", 15*time.Second),
		ExchangeMinVolumeSoon:  getFloat64OrDefault("EXCHANGE_MIN_VOLUME_SOON", 10.0),

		SoftbookBaseURL:        getEnvOrDefault("SOFTBOOK_BASE_URL", "https://api.the-odds-api.com/v4"),
		SoftbookAPIKey:         os.Getenv("SOFTBOOK_API_KEY"),
		SoftbookRequestTimeout: getDurationOrDefault("SOFTBOOK_REQUEST_TIMEOUT", 15*time.Second),
		SoftbookBookmakers:     getEnvOrDefault("SOFTBOOK_BOOKMAKERS", "williamhill,paddypower,ladbrokes_uk"),
		SoftbookSportKeys:      getEnvOrDefault("SOFTBOOK_SPORT_KEYS", "soccer_epl,soccer_efl_champ"),

		FetchIntervalLive:     getDurationOrDefault("FETCH_INTERVAL_LIVE", 5*time.Second),
		FetchIntervalToday:    getDurationOrDefault("FETCH_INTERVAL_TODAY", 10*time.Second),
		FetchIntervalEarly:    getDurationOrDefault("FETCH_INTERVAL_EARLY", 20*time.Second),
		FetchIntervalExchange: getDurationOrDefault("FETCH_INTERVAL_EXCHANGE", 5*time.Second),
		FetchIntervalSoftbook: getDurationOrDefault("FETCH_INTERVAL_SOFTBOOK", 2*time.Minute),
		SnapshotPath:          getEnvOrDefault("SNAPSHOT_PATH", "reconciled_snapshot.json"),
		SnapshotInterval:      getDurationOrDefault("SNAPSHOT_INTERVAL", 30*time.Second),
		DegradedAfterFailures: getIntOrDefault("DEGRADED_AFTER_FAILURES", 5),

		ArbCommission:   getFloat64OrDefault("ARB_COMMISSION", 0.02),
		ArbMinMargin:    getFloat64OrDefault("ARB_MIN_MARGIN", 0.001),
		ArbMaxMargin:    getFloat64OrDefault("ARB_MAX_MARGIN", 0.05),
		ArbMinVolume:    getFloat64OrDefault("ARB_MIN_VOLUME", 100.0),
		ArbMaxRecordAge: getDurationOrDefault("ARB_MAX_RECORD_AGE", 60*time.Second),
		ArbScanInterval: getDurationOrDefault("ARB_SCAN_INTERVAL", 5*time.Second),
		ArbMinSanePrice: getFloat64OrDefault("ARB_MIN_SANE_PRICE", 1.01),
		ArbSymmetric:    getBoolOrDefault("ARB_SYMMETRIC", false),

		SteamWindow:           getDurationOrDefault("STEAM_WINDOW", 15*time.Minute),
		SteamThresholdPP:      getFloat64OrDefault("STEAM_THRESHOLD_PP", 3.0),
		SteamCooldown:         getDurationOrDefault("STEAM_COOLDOWN", 30*time.Minute),
		SteamRealertIncrement: getFloat64OrDefault("STEAM_REALERT_INCREMENT_PP", 2.0),
		SteamMinPrice:         getFloat64OrDefault("STEAM_MIN_PRICE", 1.10),
		SteamMaxPrice:         getFloat64OrDefault("STEAM_MAX_PRICE", 10.0),
		SteamTickInterval:     getDurationOrDefault("STEAM_TICK_INTERVAL", 5*time.Second),
		SteamSweepInterval:    getDurationOrDefault("STEAM_SWEEP_INTERVAL", time.Minute),

		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "sportsarb"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "sportsarb123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "sports_arb"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),

		NotifyMode:    getEnvOrDefault("NOTIFY_MODE", "log"),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisStream:   getEnvOrDefault("REDIS_STREAM", "alerts:signals"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.ArbCommission < 0 || c.ArbCommission >= 1.0 {
		return fmt.Errorf("ARB_COMMISSION must be in [0, 1), got %f", c.ArbCommission)
	}

	if c.ArbMinMargin >= c.ArbMaxMargin {
		return fmt.Errorf("ARB_MIN_MARGIN (%f) must be below ARB_MAX_MARGIN (%f)",
			c.ArbMinMargin, c.ArbMaxMargin)
	}

	if c.SteamMinPrice <= 1.0 || c.SteamMaxPrice <= c.SteamMinPrice {
		return fmt.Errorf("steam price band invalid: [%f, %f]", c.SteamMinPrice, c.SteamMaxPrice)
	}

	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
	}

	if c.NotifyMode != "redis" && c.NotifyMode != "log" {
		return fmt.Errorf("NOTIFY_MODE must be 'redis' or 'log', got %q", c.NotifyMode)
	}

	if c.DegradedAfterFailures < 1 {
		return fmt.Errorf("DEGRADED_AFTER_FAILURES must be >= 1, got %d", c.DegradedAfterFailures)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
