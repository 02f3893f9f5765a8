package config

import (
	"fmt"
	"slices"
	"time"
)

// Built-in behavior names accepted in MediatorConfig.Behaviors.
const (
	BehaviorRecover        = "recover"
	BehaviorRequestID      = "request_id"
	BehaviorLogging        = "logging"
	BehaviorTracing        = "tracing"
	BehaviorMetrics        = "metrics"
	BehaviorAudit          = "audit"
	BehaviorAuthorization  = "authorization"
	BehaviorRateLimit      = "rate_limit"
	BehaviorBulkhead       = "bulkhead"
	BehaviorCircuitBreaker = "circuit_breaker"
	BehaviorValidation     = "validation"
)

// KnownBehaviors lists every built-in behavior name.
var KnownBehaviors = []string{
	BehaviorRecover, BehaviorRequestID, BehaviorLogging, BehaviorTracing, BehaviorMetrics,
	BehaviorAudit, BehaviorAuthorization, BehaviorRateLimit, BehaviorBulkhead,
	BehaviorCircuitBreaker, BehaviorValidation,
}

// DefaultBehaviors is used when no behaviors are configured.
var DefaultBehaviors = []string{
	BehaviorRecover, BehaviorRequestID, BehaviorLogging, BehaviorTracing,
	BehaviorMetrics, BehaviorAuthorization, BehaviorValidation,
}

// MediatorConfig configures dispatch and the built-in behaviors.
type MediatorConfig struct {
	// PublishStrategy is "sequential" or "parallel".
	PublishStrategy string `yaml:"publish_strategy" mapstructure:"publish_strategy"`
	// Behaviors names the built-in behaviors to install.
	Behaviors      []string             `yaml:"behaviors" mapstructure:"behaviors"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit" mapstructure:"rate_limit"`
	Bulkhead       BulkheadConfig       `yaml:"bulkhead" mapstructure:"bulkhead"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	Audit          AuditConfig          `yaml:"audit" mapstructure:"audit"`
}

// RateLimitConfig configures the per-request-type token bucket.
type RateLimitConfig struct {
	Rate    float64       `yaml:"rate" mapstructure:"rate"`
	Burst   int           `yaml:"burst" mapstructure:"burst"`
	MaxWait time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
}

// BulkheadConfig configures the concurrency cap shared by all requests.
type BulkheadConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	MaxWait       time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
}

// CircuitBreakerConfig configures the per-request-type breakers.
type CircuitBreakerConfig struct {
	MaxFailures      int           `yaml:"max_failures" mapstructure:"max_failures"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
	HalfOpenMaxCalls int           `yaml:"half_open_max_calls" mapstructure:"half_open_max_calls"`
}

// AuditConfig selects the audit trail store.
type AuditConfig struct {
	// Driver is "memory", "sqlite" or "postgres".
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// Enabled reports whether the named behavior is configured.
func (c *MediatorConfig) Enabled(name string) bool {
	return slices.Contains(c.Behaviors, name)
}

// ApplyDefaults fills unset fields.
func (c *MediatorConfig) ApplyDefaults() {
	if c.PublishStrategy == "" {
		c.PublishStrategy = "sequential"
	}
	if c.Behaviors == nil {
		c.Behaviors = slices.Clone(DefaultBehaviors)
	}
	if c.RateLimit.Rate <= 0 {
		c.RateLimit.Rate = 100
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 20
	}
	if c.Bulkhead.MaxConcurrent <= 0 {
		c.Bulkhead.MaxConcurrent = 64
	}
	if c.CircuitBreaker.MaxFailures <= 0 {
		c.CircuitBreaker.MaxFailures = 5
	}
	if c.CircuitBreaker.Timeout <= 0 {
		c.CircuitBreaker.Timeout = 30 * time.Second
	}
	if c.CircuitBreaker.HalfOpenMaxCalls <= 0 {
		c.CircuitBreaker.HalfOpenMaxCalls = 1
	}
	if c.Audit.Driver == "" {
		c.Audit.Driver = "memory"
	}
	if c.Audit.Driver == "sqlite" && c.Audit.DSN == "" {
		c.Audit.DSN = "file:audit.db?cache=shared"
	}
}

// Validate checks the mediator section.
func (c *MediatorConfig) Validate() error {
	strategies := []string{"sequential", "parallel"}
	if !slices.Contains(strategies, c.PublishStrategy) {
		return fmt.Errorf("mediator.publish_strategy must be one of %v (got: %s)", strategies, c.PublishStrategy)
	}
	for _, b := range c.Behaviors {
		if !slices.Contains(KnownBehaviors, b) {
			return fmt.Errorf("mediator.behaviors: unknown behavior %q", b)
		}
	}
	drivers := []string{"memory", "sqlite", "postgres"}
	if !slices.Contains(drivers, c.Audit.Driver) {
		return fmt.Errorf("mediator.audit.driver must be one of %v (got: %s)", drivers, c.Audit.Driver)
	}
	if c.Audit.Driver == "postgres" && c.Audit.DSN == "" {
		return fmt.Errorf("mediator.audit.dsn is required for the postgres driver")
	}
	return nil
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults fills unset fields.
func (c *TelemetryConfig) ApplyDefaults() {
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4318"
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = "localhost:4318"
	}
	if c.Metrics.Interval <= 0 {
		c.Metrics.Interval = 15 * time.Second
	}
}

// Validate checks the telemetry section.
func (c *TelemetryConfig) Validate() error {
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("telemetry.tracing.sample_rate must be within [0, 1] (got: %v)", c.Tracing.SampleRate)
	}
	return nil
}
