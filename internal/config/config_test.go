package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

const testConfigYAML = `
server:
  port: 8080
  host: "0.0.0.0"
database:
  host: "localhost"
  port: 5432
  user: "ragserve"
  password: "${TEST_DB_PASSWORD}"
  dbname: "ragserve"
redis:
  address: "localhost:6379"
`

func TestLoadConfigReadsYAMLAndSubstitutesEnvPlaceholders(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testConfigYAML), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("TEST_DB_PASSWORD", "super-secret")

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir into temp config dir: %v", err)
	}
	defer func() {
		_ = os.Chdir(wd)
		viper.Reset()
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}
	if cfg.Server == nil || cfg.Server.Port != 8080 {
		t.Fatalf("expected server.port=8080, got %+v", cfg.Server)
	}
	if cfg.Database == nil || cfg.Database.Password != "super-secret" {
		t.Fatalf("expected the ${TEST_DB_PASSWORD} placeholder substituted, got %+v", cfg.Database)
	}
}

func TestLoadConfigReturnsErrorWhenNoConfigFileIsFound(t *testing.T) {
	dir := t.TempDir()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir into empty temp dir: %v", err)
	}
	defer func() {
		_ = os.Chdir(wd)
		viper.Reset()
	}()

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected an error when no config file is present")
	}
}
