package config

import (
	"fmt"

	"github.com/kbukum/modkit/logger"
	"github.com/kbukum/modkit/redis"
	"github.com/kbukum/modkit/resilience"
	"github.com/kbukum/modkit/storage"
	"github.com/kbukum/modkit/storage/s3"
	"github.com/kbukum/modkit/validation"
)

// History backends.
const (
	HistoryBackendStorage = "storage"
	HistoryBackendRedis   = "redis"
)

// Config is the configuration of a modkit runner.
type Config struct {
	Name        string        `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string        `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`

	Paths   Paths          `yaml:"paths" mapstructure:"paths"`
	Storage storage.Config `yaml:"storage" mapstructure:"storage"`
	S3      s3.Config      `yaml:"s3" mapstructure:"s3"`
	History History        `yaml:"history" mapstructure:"history"`

	// Retry governs storage writes of outputs, metadata and histories.
	Retry   resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
	Tracing Tracing                `yaml:"tracing" mapstructure:"tracing"`
}

// Paths are relative to the storage root.
type Paths struct {
	OutputDir  string `yaml:"output_dir" mapstructure:"output_dir" validate:"required"`
	HistoryDir string `yaml:"history_dir" mapstructure:"history_dir" validate:"required"`
}

// History selects where metadata histories are kept.
type History struct {
	Backend string `yaml:"backend" mapstructure:"backend" validate:"oneof=storage redis"`
	// MaxSize caps every module's history length. Zero keeps module settings.
	MaxSize int          `yaml:"max_size" mapstructure:"max_size" validate:"gte=0"`
	Redis   redis.Config `yaml:"redis" mapstructure:"redis"`
}

// Tracing configures OpenTelemetry export.
type Tracing struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "modkit"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()

	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = "output"
	}
	if c.Paths.HistoryDir == "" {
		c.Paths.HistoryDir = "history"
	}

	c.Storage.ApplyDefaults()
	if c.Storage.Provider == storage.ProviderS3 {
		c.S3.ApplyDefaults()
	}

	if c.History.Backend == "" {
		c.History.Backend = HistoryBackendStorage
	}
	if c.History.Backend == HistoryBackendRedis {
		c.History.Redis.ApplyDefaults()
	}

	def := resilience.DefaultRetryConfig()
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = def.MaxAttempts
	}
	if c.Retry.InitialBackoff == 0 {
		c.Retry.InitialBackoff = def.InitialBackoff
	}
	if c.Retry.MaxBackoff == 0 {
		c.Retry.MaxBackoff = def.MaxBackoff
	}
	if c.Retry.BackoffFactor == 0 {
		c.Retry.BackoffFactor = def.BackoffFactor
	}
	if c.Retry.RetryIf == nil {
		c.Retry.RetryIf = def.RetryIf
	}

	if c.Tracing.Enabled && c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
}

// Validate checks struct tags and the settings of the selected backends.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("config.storage: %w", err)
	}
	if c.Storage.Provider == storage.ProviderS3 {
		if err := c.S3.Validate(); err != nil {
			return fmt.Errorf("config.s3: %w", err)
		}
	}
	if c.History.Backend == HistoryBackendRedis {
		if err := c.History.Redis.Validate(); err != nil {
			return fmt.Errorf("config.history.redis: %w", err)
		}
	}
	return nil
}
