package container

import (
	"context"
	"testing"

	"github.com/panjf2000/ants/v2"

	"github.com/raghavpatnecha/ragserve/internal/config"
)

func TestModelConfigFindsModelByTypeCaseInsensitively(t *testing.T) {
	cfg := &config.Config{Models: []config.ModelConfig{
		{Type: "Embedding", ModelName: "text-embedding-3-small"},
		{Type: "chat", ModelName: "gpt-4o-mini"},
	}}

	m, err := modelConfig(cfg, "embedding")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.ModelName != "text-embedding-3-small" {
		t.Errorf("expected the embedding model found regardless of case, got %q", m.ModelName)
	}
}

func TestModelConfigReturnsErrorWhenTypeIsNotConfigured(t *testing.T) {
	cfg := &config.Config{Models: []config.ModelConfig{{Type: "chat"}}}
	if _, err := modelConfig(cfg, "rerank"); err == nil {
		t.Fatal("expected an error when no model of the requested type is configured")
	}
}

func TestInitAntsPoolDefaultsToFiveWhenEnvVarUnset(t *testing.T) {
	pool, err := initAntsPool(&config.Config{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer pool.Release()
	if pool.Cap() != 5 {
		t.Errorf("expected a default pool capacity of 5, got %d", pool.Cap())
	}
}

func TestInitAntsPoolHonorsConcurrencyPoolSizeEnvVar(t *testing.T) {
	t.Setenv("CONCURRENCY_POOL_SIZE", "3")
	pool, err := initAntsPool(&config.Config{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer pool.Release()
	if pool.Cap() != 3 {
		t.Errorf("expected pool capacity 3 from the env var, got %d", pool.Cap())
	}
}

func TestInitAntsPoolReturnsErrorForNonNumericEnvVar(t *testing.T) {
	t.Setenv("CONCURRENCY_POOL_SIZE", "not-a-number")
	if _, err := initAntsPool(&config.Config{}); err == nil {
		t.Fatal("expected an error for a non-numeric CONCURRENCY_POOL_SIZE")
	}
}

func TestInitGraphManagerReturnsNilWhenGraphDisabled(t *testing.T) {
	cfg := &config.Config{Graph: &config.GraphConfig{Enabled: false}}
	if m := initGraphManager(cfg, nil); m != nil {
		t.Error("expected a nil graph manager when graph retrieval is disabled")
	}
}

func TestInitGraphManagerReturnsNilWhenGraphConfigMissing(t *testing.T) {
	if m := initGraphManager(&config.Config{}, nil); m != nil {
		t.Error("expected a nil graph manager when no graph config is set")
	}
}

func TestInitGraphManagerReturnsNilWhenDriverIsNil(t *testing.T) {
	cfg := &config.Config{Graph: &config.GraphConfig{Enabled: true}}
	if m := initGraphManager(cfg, nil); m != nil {
		t.Error("expected a nil graph manager when the neo4j driver is nil, even if graph is enabled")
	}
}

func TestRegisterPoolCleanupReleasesThePoolOnCleanup(t *testing.T) {
	pool, err := ants.NewPool(1)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	cleaner := NewResourceCleaner()
	registerPoolCleanup(pool, cleaner)

	errs := cleaner.Cleanup(context.Background())
	if len(errs) != 0 {
		t.Fatalf("expected no errors releasing the pool, got %v", errs)
	}
	if !pool.IsClosed() {
		t.Error("expected the pool to be released (closed) after cleanup")
	}
}
