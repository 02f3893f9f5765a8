package httpx

import (
	"fmt"
	"time"
)

// Config holds HTTP transport configuration.
type Config struct {
	Enabled      bool      `yaml:"enabled" mapstructure:"enabled"`
	Host         string    `yaml:"host" mapstructure:"host"`
	Port         int       `yaml:"port" mapstructure:"port"`
	ReadTimeout  int       `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int       `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int       `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
	BasePath     string    `yaml:"base_path" mapstructure:"base_path"`
	JWT          JWTConfig `yaml:"jwt" mapstructure:"jwt"`
}

// JWTConfig configures BearerAuth.
type JWTConfig struct {
	// Secret is the HMAC key used to verify HS256 tokens. Empty disables BearerAuth.
	Secret string `yaml:"secret" mapstructure:"secret"`
	// Issuer is the required "iss" claim (optional).
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
	// Audience is the required "aud" claim (optional).
	Audience string `yaml:"audience" mapstructure:"audience"`
	// RolesClaim names the claim holding the caller's roles (default: "roles").
	RolesClaim string `yaml:"roles_claim" mapstructure:"roles_claim"`
	// Optional lets requests without an Authorization header through anonymously.
	// Requests implementing behavior.Secured are still rejected by the pipeline.
	Optional bool `yaml:"optional" mapstructure:"optional"`
	// SkipPaths are URL path prefixes that bypass authentication.
	SkipPaths []string `yaml:"skip_paths" mapstructure:"skip_paths"`
	// Leeway tolerates clock skew when checking exp/nbf.
	Leeway time.Duration `yaml:"leeway" mapstructure:"leeway"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.JWT.RolesClaim == "" {
		c.JWT.RolesClaim = "roles"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("http.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("http.read_timeout must be non-negative (got: %d)", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("http.write_timeout must be non-negative (got: %d)", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("http.idle_timeout must be non-negative (got: %d)", c.IdleTimeout)
	}
	if c.JWT.Leeway < 0 {
		return fmt.Errorf("http.jwt.leeway must be non-negative (got: %s)", c.JWT.Leeway)
	}
	return nil
}
