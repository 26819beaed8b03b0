package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the Cascade orchestrator.
type Config struct {
	// Server configuration
	HTTPPort int    `env:"CASCADE_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"CASCADE_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis configuration. Leave Addr empty to run with in-memory
	// adapters (no event fan-out across processes, no result retention
	// across restarts).
	Redis RedisConfig

	// LLM configuration
	LLM LLMConfig

	// Orchestration defaults applied to runs that do not override them
	Orchestration OrchestrationConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`

	// ResultTTL bounds how long completed run results are retained.
	ResultTTL time.Duration `env:"REDIS_RESULT_TTL" envDefault:"24h"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider string `env:"LLM_PROVIDER" envDefault:"anthropic"`
	APIKey   string `env:"LLM_API_KEY"`

	RequestTimeout time.Duration `env:"LLM_REQUEST_TIMEOUT" envDefault:"120s"`

	// Default model settings
	DefaultModel     string `env:"LLM_DEFAULT_MODEL" envDefault:"claude-3-5-sonnet-20241022"`
	DefaultMaxTokens int    `env:"LLM_DEFAULT_MAX_TOKENS" envDefault:"4096"`
}

// OrchestrationConfig holds the default run parameters.
type OrchestrationConfig struct {
	NumWorkers         int           `env:"CASCADE_NUM_WORKERS" envDefault:"5"`
	MaxConcurrency     int           `env:"CASCADE_MAX_CONCURRENCY" envDefault:"5"`
	EnableTier2        bool          `env:"CASCADE_ENABLE_TIER2" envDefault:"true"`
	EnableTier3        bool          `env:"CASCADE_ENABLE_TIER3" envDefault:"true"`
	SynthesisBatchSize int           `env:"CASCADE_SYNTHESIS_BATCH_SIZE" envDefault:"5"`
	ExecutiveThreshold int           `env:"CASCADE_EXECUTIVE_THRESHOLD" envDefault:"2"`
	PerTaskTimeout     time.Duration `env:"CASCADE_PER_TASK_TIMEOUT" envDefault:"300s"`
	MaxRetries         int           `env:"CASCADE_MAX_RETRIES" envDefault:"2"`
	RetryDelay         time.Duration `env:"CASCADE_RETRY_DELAY" envDefault:"1s"`
}

// TimeoutConfig holds process-level timeout configuration.
type TimeoutConfig struct {
	RunTimeout      time.Duration `env:"TIMEOUT_RUN" envDefault:"3600s"`
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid. Out-of-range values are
// rejected here, before any work starts.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key is required")
	}
	if c.LLM.Provider != "anthropic" {
		return fmt.Errorf("unsupported LLM provider: %s (only 'anthropic' is supported)", c.LLM.Provider)
	}

	if err := c.Orchestration.Validate(); err != nil {
		return err
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// Validate checks the orchestration bounds.
func (o *OrchestrationConfig) Validate() error {
	if o.NumWorkers < 1 || o.NumWorkers > 20 {
		return fmt.Errorf("num workers must be between 1 and 20, got %d", o.NumWorkers)
	}
	if o.MaxConcurrency < 1 || o.MaxConcurrency > 10 {
		return fmt.Errorf("max concurrency must be between 1 and 10, got %d", o.MaxConcurrency)
	}
	if o.SynthesisBatchSize < 1 {
		return fmt.Errorf("synthesis batch size must be at least 1, got %d", o.SynthesisBatchSize)
	}
	if o.ExecutiveThreshold < 1 {
		return fmt.Errorf("executive threshold must be at least 1, got %d", o.ExecutiveThreshold)
	}
	if o.PerTaskTimeout <= 0 {
		return fmt.Errorf("per task timeout must be positive, got %s", o.PerTaskTimeout)
	}
	if o.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", o.MaxRetries)
	}
	if o.RetryDelay < 0 {
		return fmt.Errorf("retry delay must not be negative, got %s", o.RetryDelay)
	}
	return nil
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address.
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
