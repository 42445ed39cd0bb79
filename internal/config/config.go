// Package config loads and validates KyroQL's configuration from
// environment variables, adapted from the teacher's env-var loader with
// aggregated parse-error reporting (internal/config/config.go).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the storage and monitor subsystems plus
// ambient logging/telemetry settings (spec.md §6).
type Config struct {
	// Storage settings.
	DataDir        string
	MaxSegmentSize int64
	MaxSegmentRecs int
	MaxWALSize     int64
	SyncEveryWrite bool

	// Monitor settings.
	ObservationQueueCapacity int
	ControlQueueCapacity     int
	StreamCapacity           int

	// Resolve defaults.
	DefaultResolveLimit int

	// Simulation bounds.
	MaxAffectedEntities int
	MaxSimulationDepth  int
	MaxSimulationMS     int64

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel string
}

// LoadDotEnv loads a .env file into the process environment if present,
// silently continuing if none exists — optional convenience for local
// development, never required in production.
func LoadDotEnv(path string) {
	_ = godotenv.Load(path)
}

// Load reads configuration from environment variables with sensible
// defaults. Missing variables use defaults; malformed values are rejected,
// and every parse error is collected before returning, not just the first.
// Well-formed values are then checked by Validate, which rejects
// out-of-range settings.
func Load() (Config, error) {
	var errs []error
	cfg := Config{
		DataDir:      envStr("KYROQL_DATA_DIR", "./kyroql-data"),
		OTELEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  envStr("OTEL_SERVICE_NAME", "kyroql"),
		LogLevel:     envStr("KYROQL_LOG_LEVEL", "info"),
	}

	var maxSegSize, maxWALSize int
	maxSegSize, errs = collectInt(errs, "KYROQL_MAX_SEGMENT_SIZE_BYTES", 256<<20)
	cfg.MaxSegmentSize = int64(maxSegSize)
	maxWALSize, errs = collectInt(errs, "KYROQL_MAX_WAL_SIZE_BYTES", 64<<20)
	cfg.MaxWALSize = int64(maxWALSize)
	cfg.MaxSegmentRecs, errs = collectInt(errs, "KYROQL_MAX_SEGMENT_RECORDS", 200_000)

	cfg.ObservationQueueCapacity, errs = collectInt(errs, "KYROQL_OBSERVATION_QUEUE_CAPACITY", 4096)
	cfg.ControlQueueCapacity, errs = collectInt(errs, "KYROQL_CONTROL_QUEUE_CAPACITY", 1024)
	cfg.StreamCapacity, errs = collectInt(errs, "KYROQL_STREAM_CAPACITY", 1024)

	cfg.DefaultResolveLimit, errs = collectInt(errs, "KYROQL_DEFAULT_RESOLVE_LIMIT", 10)

	cfg.MaxAffectedEntities, errs = collectInt(errs, "KYROQL_MAX_AFFECTED_ENTITIES", 1000)
	cfg.MaxSimulationDepth, errs = collectInt(errs, "KYROQL_MAX_SIMULATION_DEPTH", 2)
	var maxSimMS int
	maxSimMS, errs = collectInt(errs, "KYROQL_MAX_SIMULATION_MS", 500)
	cfg.MaxSimulationMS = int64(maxSimMS)

	cfg.OTELInsecure, errs = collectBool(errs, "OTEL_EXPORTER_OTLP_INSECURE", false)

	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return Config{}, fmt.Errorf("config: invalid environment variables:\n  %s", strings.Join(msgs, "\n  "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func collectInt(errs []error, key string, fallback int) (int, []error) {
	v, err := envInt(key, fallback)
	if err != nil {
		errs = append(errs, err)
	}
	return v, errs
}

func collectBool(errs []error, key string, fallback bool) (bool, []error) {
	v, err := envBool(key, fallback)
	if err != nil {
		errs = append(errs, err)
	}
	return v, errs
}

// Validate checks that configuration values are sane, including the
// minimums spec.md §5 mandates for storage tuning (max_wal_size >= 4KiB,
// max_segment_size >= 16KiB).
func (c Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("config: KYROQL_DATA_DIR is required"))
	}
	if c.MaxSegmentSize < 16<<10 {
		errs = append(errs, errors.New("config: KYROQL_MAX_SEGMENT_SIZE_BYTES must be >= 16KiB"))
	}
	if c.MaxWALSize < 4<<10 {
		errs = append(errs, errors.New("config: KYROQL_MAX_WAL_SIZE_BYTES must be >= 4KiB"))
	}
	if c.MaxSegmentRecs <= 0 {
		errs = append(errs, errors.New("config: KYROQL_MAX_SEGMENT_RECORDS must be positive"))
	}
	if c.ObservationQueueCapacity <= 0 {
		errs = append(errs, errors.New("config: KYROQL_OBSERVATION_QUEUE_CAPACITY must be positive"))
	}
	if c.ControlQueueCapacity <= 0 {
		errs = append(errs, errors.New("config: KYROQL_CONTROL_QUEUE_CAPACITY must be positive"))
	}
	if c.StreamCapacity <= 0 {
		errs = append(errs, errors.New("config: KYROQL_STREAM_CAPACITY must be positive"))
	}
	if c.DefaultResolveLimit <= 0 {
		errs = append(errs, errors.New("config: KYROQL_DEFAULT_RESOLVE_LIMIT must be positive"))
	}
	if c.MaxAffectedEntities <= 0 || c.MaxSimulationDepth <= 0 || c.MaxSimulationMS <= 0 {
		errs = append(errs, errors.New("config: simulation bounds must be positive"))
	}

	return errors.Join(errs...)
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s=%q is not a valid boolean", key, v)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}
