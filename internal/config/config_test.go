package config

import "testing"

func TestEnvIntValid(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	v, err := envInt("TEST_INT", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestEnvIntFallback(t *testing.T) {
	v, err := envInt("TEST_INT_MISSING", 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 99 {
		t.Fatalf("expected fallback 99, got %d", v)
	}
}

func TestEnvIntInvalid(t *testing.T) {
	t.Setenv("TEST_INT_BAD", "abc")
	_, err := envInt("TEST_INT_BAD", 0)
	if err == nil {
		t.Fatal("expected error for non-integer value, got nil")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataDir != "./kyroql-data" {
		t.Fatalf("expected default data dir, got %q", cfg.DataDir)
	}
	if cfg.DefaultResolveLimit != 10 {
		t.Fatalf("expected default resolve limit 10, got %d", cfg.DefaultResolveLimit)
	}
	if cfg.MaxAffectedEntities != 1000 || cfg.MaxSimulationDepth != 2 || cfg.MaxSimulationMS != 500 {
		t.Fatalf("unexpected simulation defaults: %+v", cfg)
	}
}

func TestLoadRejectsUndersizedSegmentSize(t *testing.T) {
	t.Setenv("KYROQL_MAX_SEGMENT_SIZE_BYTES", "100")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for undersized segment size, got nil")
	}
}

func TestLoadRejectsUndersizedWALSize(t *testing.T) {
	t.Setenv("KYROQL_MAX_WAL_SIZE_BYTES", "100")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for undersized wal size, got nil")
	}
}

func TestLoadAggregatesMultipleParseErrors(t *testing.T) {
	t.Setenv("KYROQL_MAX_SEGMENT_RECORDS", "not-a-number")
	t.Setenv("KYROQL_STREAM_CAPACITY", "also-not-a-number")
	_, err := Load()
	if err == nil {
		t.Fatal("expected aggregated error, got nil")
	}
}
