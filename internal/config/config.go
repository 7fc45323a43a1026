// Package config loads and validates the service's runtime configuration from
// environment variables, matching every key enumerated in the specification's
// configuration table.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the fully-validated runtime configuration for the ingestion
// service. It is constructed once at startup by Load and then treated as
// immutable for the lifetime of the process.
type Config struct {
	// Postgres connection.
	PGHost     string
	PGPort     string
	PGUser     string
	PGDB       string
	PGPassword string

	// Redis connection, backing the completion-event stream and the
	// optional distributed cache.
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Upstream feed. The transceivers endpoint is fetched separately (spec
	// §6: "A separate fetch and normalization per endpoint"); left empty it
	// is simply skipped, since some deployments run without ADS-B/radio
	// coverage data.
	FeedBaseURL         string
	TransceiversBaseURL string
	FeedRequestTimeout  time.Duration

	// Reference-data inputs (§6 External interfaces).
	AirportsCSVPath         string
	BoundaryGeoJSONPath     string
	SectorsGeoJSONPath      string
	ControllerCallsignsPath string

	// Scheduling cadence.
	PollInterval              time.Duration
	FlushInterval             time.Duration
	DisconnectCheckInterval   time.Duration
	CleanupInterval           time.Duration
	StaleMultiplier           float64

	// Write batcher.
	BatchThreshold int

	// Landing detector.
	LandingRadiusNM      float64
	LandingAltFt         float64
	LandingSpeedKts      float64
	LandingDupMinutes    time.Duration
	TimeoutHours         time.Duration

	// Memory and filter behavior.
	MemoryCapMB            int
	CallsignFilterEnabled  bool
	RegionLetter           string

	AppEnv string
}

// Load reads the configuration from the environment, applies the defaults of
// spec §6, and validates every numeric range. It fails fast: an invalid
// configuration is a startup error, never a degraded runtime mode.
func Load() (*Config, error) {
	cfg := &Config{
		PGHost:     getenv("PG_HOST", "localhost"),
		PGPort:     getenv("PG_PORT", "5432"),
		PGUser:     getenv("PG_USER", "postgres"),
		PGDB:       getenv("PG_DB", "ingestd"),
		PGPassword: os.Getenv("PG_PASSWORD"),

		RedisHost:     getenv("REDIS_HOST", "localhost"),
		RedisPort:     getenv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		FeedBaseURL:         getenv("FEED_BASE_URL", "https://data.vatpac.example/v3/vatsim-data.json"),
		TransceiversBaseURL: getenv("TRANSCEIVERS_BASE_URL", ""),

		AirportsCSVPath:         getenv("AIRPORTS_CSV_PATH", "reference/airports.csv"),
		BoundaryGeoJSONPath:     getenv("BOUNDARY_GEOJSON_PATH", "reference/boundary.geojson"),
		SectorsGeoJSONPath:      getenv("SECTORS_GEOJSON_PATH", "reference/sectors.geojson"),
		ControllerCallsignsPath: getenv("CONTROLLER_CALLSIGNS_PATH", "reference/controller_callsigns.txt"),

		RegionLetter: getenv("REGION_LETTER", "Y"),
		AppEnv:       getenv("APP_ENV", "development"),
	}

	var err error
	if cfg.FeedRequestTimeout, err = getDuration("FEED_REQUEST_TIMEOUT_S", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getDuration("POLL_INTERVAL_S", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.FlushInterval, err = getDuration("FLUSH_INTERVAL_S", 300*time.Second); err != nil {
		return nil, err
	}
	if cfg.DisconnectCheckInterval, err = getDuration("DISCONNECT_CHECK_INTERVAL_S", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.CleanupInterval, err = getDuration("CLEANUP_INTERVAL_S", 300*time.Second); err != nil {
		return nil, err
	}
	if cfg.LandingDupMinutes, err = getDurationUnit("LANDING_DUP_MINUTES", 5*time.Minute, time.Minute); err != nil {
		return nil, err
	}
	if cfg.TimeoutHours, err = getDurationUnit("TIMEOUT_HOURS", time.Hour, time.Hour); err != nil {
		return nil, err
	}

	if cfg.StaleMultiplier, err = getFloat("STALE_MULTIPLIER", 2.5); err != nil {
		return nil, err
	}
	if cfg.LandingRadiusNM, err = getFloat("LANDING_RADIUS_NM", 15.0); err != nil {
		return nil, err
	}
	if cfg.LandingAltFt, err = getFloat("LANDING_ALT_FT", 1000); err != nil {
		return nil, err
	}
	if cfg.LandingSpeedKts, err = getFloat("LANDING_SPEED_KTS", 20); err != nil {
		return nil, err
	}

	if cfg.BatchThreshold, err = getInt("BATCH_THRESHOLD", 10000); err != nil {
		return nil, err
	}
	if cfg.MemoryCapMB, err = getInt("MEMORY_CAP_MB", 2048); err != nil {
		return nil, err
	}

	if cfg.CallsignFilterEnabled, err = getBool("CALLSIGN_FILTER_ENABLED", true); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("config: poll_interval_s must be positive, got %s", c.PollInterval)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("config: flush_interval_s must be positive, got %s", c.FlushInterval)
	}
	if c.FlushInterval > 15*time.Minute {
		return fmt.Errorf("config: flush_interval_s must not exceed 15m, got %s", c.FlushInterval)
	}
	if c.BatchThreshold <= 0 {
		return fmt.Errorf("config: batch_threshold must be positive, got %d", c.BatchThreshold)
	}
	if c.StaleMultiplier <= 0 {
		return fmt.Errorf("config: stale_multiplier must be positive, got %f", c.StaleMultiplier)
	}
	if c.LandingRadiusNM <= 0 {
		return fmt.Errorf("config: landing_radius_nm must be positive, got %f", c.LandingRadiusNM)
	}
	if c.LandingSpeedKts < 0 {
		return fmt.Errorf("config: landing_speed_kts must not be negative, got %f", c.LandingSpeedKts)
	}
	if c.TimeoutHours <= 0 {
		return fmt.Errorf("config: timeout_hours must be positive, got %s", c.TimeoutHours)
	}
	if c.MemoryCapMB <= 0 {
		return fmt.Errorf("config: memory_cap_mb must be positive, got %d", c.MemoryCapMB)
	}
	if len(c.RegionLetter) != 1 {
		return fmt.Errorf("config: region_letter must be a single character, got %q", c.RegionLetter)
	}
	return nil
}

// PostgresDSN returns the libpq connection string built from the Postgres
// fields, matching the DSN format the teacher builds in cmd/server/main.go.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDB)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	return getDurationUnit(key, def, time.Second)
}

// getDurationUnit reads key as a (possibly fractional) number of unit.
func getDurationUnit(key string, def, unit time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return time.Duration(n * float64(unit)), nil
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return f, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return b, nil
}
