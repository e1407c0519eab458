package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/modkit/errors"
)

func validConfig() Config {
	c := Config{Name: "nightly"}
	c.ApplyDefaults()
	return c
}

func TestConfig_ApplyDefaults(t *testing.T) {
	c := validConfig()
	if c.Environment != "development" {
		t.Errorf("expected development, got %q", c.Environment)
	}
	if c.Paths.OutputDir != "output" || c.Paths.HistoryDir != "history" {
		t.Errorf("unexpected paths %+v", c.Paths)
	}
	if c.History.Backend != HistoryBackendStorage {
		t.Errorf("expected storage history backend, got %q", c.History.Backend)
	}
	if c.Retry.MaxAttempts != 3 {
		t.Errorf("expected default retry policy, got %+v", c.Retry)
	}
	if c.Logging.ServiceName != "nightly" {
		t.Errorf("expected logging service name from config name, got %q", c.Logging.ServiceName)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad environment", func(c *Config) { c.Environment = "qa" }, "environment"},
		{"bad history backend", func(c *Config) { c.History.Backend = "etcd" }, "history.backend"},
		{"negative history size", func(c *Config) { c.History.MaxSize = -1 }, "history.max_size"},
		{"tracing without endpoint", func(c *Config) { c.Tracing.Enabled = true }, "tracing.endpoint"},
		{"redis without addr", func(c *Config) { c.History.Backend = HistoryBackendRedis }, "redis addr"},
		{"s3 without bucket", func(c *Config) {
			c.Storage.Provider = "s3"
			c.S3.ApplyDefaults()
		}, "bucket"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(&c)
			err := c.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
			}
		})
	}
}

func TestConfig_Validate_AppError(t *testing.T) {
	c := validConfig()
	c.Paths.OutputDir = ""
	if err := c.Validate(); !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "modkit.yml")
	yamlContent := `
name: nightly
environment: staging
paths:
  output_dir: data/out
history:
  backend: redis
  max_size: 7
  redis:
    addr: localhost:6379
retry:
  max_attempts: 4
  initial_backoff: 50ms
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MODKIT_PATHS_HISTORY_DIR", "data/hist")
	t.Setenv("MODKIT_STORAGE_BASE_PATH", dir)

	var cfg Config
	if err := Load("nightly", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Environment != "staging" || cfg.Paths.OutputDir != "data/out" {
		t.Errorf("yaml not applied: %+v", cfg)
	}
	if cfg.Paths.HistoryDir != "data/hist" {
		t.Errorf("env not applied, history_dir = %q", cfg.Paths.HistoryDir)
	}
	if cfg.Storage.BasePath != dir {
		t.Errorf("env not applied, base_path = %q", cfg.Storage.BasePath)
	}
	if cfg.History.MaxSize != 7 || cfg.History.Redis.Addr != "localhost:6379" {
		t.Errorf("unexpected history %+v", cfg.History)
	}
	if cfg.Retry.MaxAttempts != 4 || cfg.Retry.InitialBackoff != 50*time.Millisecond {
		t.Errorf("unexpected retry %+v", cfg.Retry)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("MODKIT_NAME=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("MODKIT_NAME") })

	var cfg Config
	if err := Load("x", &cfg, WithConfigFile(filepath.Join(dir, "none.yml")), WithEnvFile(envPath)); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "from-dotenv" {
		t.Errorf("expected name from .env, got %q", cfg.Name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg Config
	if err := Load("nonexistent", &cfg, WithConfigFile("/nonexistent/modkit.yml")); err != nil {
		t.Fatalf("expected Load to succeed with missing file, got %v", err)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(string) error { return nil }

func TestResolveFiles(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./pipelines/nightly/modkit.yml": true,
		"./modkit.yml":                   true,
		"./.env":                         true,
	}}
	files := ResolveFiles("nightly", LoaderConfig{FileSystem: fs})
	if files.ConfigFile != "./pipelines/nightly/modkit.yml" {
		t.Errorf("unexpected config file %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("unexpected env file %q", files.EnvFile)
	}

	explicit := ResolveFiles("nightly", LoaderConfig{FileSystem: fs, ConfigFile: "/etc/modkit.yml"})
	if explicit.ConfigFile != "/etc/modkit.yml" {
		t.Errorf("explicit path should win, got %q", explicit.ConfigFile)
	}
}

func TestKeyVariants(t *testing.T) {
	got := keyVariants("PATHS_OUTPUT_DIR")
	for _, want := range []string{"paths_output_dir", "paths.output_dir", "paths.output.dir"} {
		if !slices.Contains(got, want) {
			t.Errorf("expected %q in %v", want, got)
		}
	}
	if len(keyVariants("NAME")) != 1 {
		t.Errorf("single-part key should have one variant")
	}
}
