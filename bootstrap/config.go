package bootstrap

import (
	"fmt"

	"github.com/kbukum/mediator/config"
	"github.com/kbukum/mediator/httpx"
)

// Config is the interface constraint for application configuration types.
// Any struct embedding AppConfig (value embedding) satisfies it through
// promoted methods.
//
//	type OrdersConfig struct {
//	    bootstrap.AppConfig `yaml:",inline" mapstructure:",squash"`
//	    Warehouse string    `yaml:"warehouse" mapstructure:"warehouse"`
//	}
type Config interface {
	GetAppConfig() *AppConfig
	ApplyDefaults()
	Validate() error
}

// AppConfig is the configuration every mediator service shares.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Mediator             config.MediatorConfig  `yaml:"mediator" mapstructure:"mediator"`
	Telemetry            config.TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	HTTP                 httpx.Config           `yaml:"http" mapstructure:"http"`
}

// GetAppConfig returns the embedded AppConfig.
func (c *AppConfig) GetAppConfig() *AppConfig {
	return c
}

// ApplyDefaults fills unset fields in every section.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Mediator.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
	c.HTTP.ApplyDefaults()
}

// Validate checks every section.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Mediator.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if c.HTTP.Enabled {
		if err := c.HTTP.Validate(); err != nil {
			return err
		}
	}
	if c.Environment == "production" && c.HTTP.Enabled && c.HTTP.JWT.Secret == "" &&
		c.Mediator.Enabled(config.BehaviorAuthorization) {
		return fmt.Errorf("http.jwt.secret is required in production when authorization is enabled")
	}
	return nil
}
