// Package config loads service configuration from YAML files, .env files and
// the environment through Viper.
//
// Services embed ServiceConfig and add their own sections:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Mediator config.MediatorConfig `yaml:"mediator" mapstructure:"mediator"`
//	}
//	cfg, err := config.Load[Config]("orders")
//
// Environment variables override file values. MEDIATOR_RATE_LIMIT_BURST
// reaches mediator.rate_limit.burst; every split of the name on underscores
// is tried as a nesting path.
package config
