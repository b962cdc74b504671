package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	pkgconfig "github.com/alderburg/Teste-sub001/pkg/config"
	"github.com/alderburg/Teste-sub001/pkg/logger"
)

// ServiceName selects configs/billing.yaml and the BILLING_ env prefix
const ServiceName = "billing"

type Config struct {
	Service  ServiceConfig    `yaml:"service" mapstructure:"service"`
	Server   ServerConfig     `yaml:"server" mapstructure:"server"`
	Database DatabaseConfig   `yaml:"database" mapstructure:"database"`
	Redis    RedisConfig      `yaml:"redis" mapstructure:"redis"`
	Log      logger.Config    `yaml:"log" mapstructure:"log"`
	JWT      JWTConfig        `yaml:"jwt" mapstructure:"jwt"`
	Billing  BillingAPIConfig `yaml:"billing" mapstructure:"billing"`
	Stripe   StripeConfig     `yaml:"stripe" mapstructure:"stripe"`
	Flow     FlowConfig       `yaml:"flow" mapstructure:"flow"`
}

type ServiceConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
}

type JWTConfig struct {
	Secret    string   `yaml:"secret" mapstructure:"secret" validate:"required"`
	SkipPaths []string `yaml:"skip_paths" mapstructure:"skip_paths"`
}

// LoadConfig reads CONFIG_PATH (default ./configs/billing.yaml), applies
// BILLING_* env overrides, fills defaults and validates the result.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := pkgconfig.Load(ServiceName, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and enumerations
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Flow.Tokenizer == "stripe" && c.Stripe.SecretKey == "" {
		return fmt.Errorf("invalid config: stripe.secret_key is required when flow.tokenizer is stripe")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = ServiceName
	}
	if c.Server.HTTP.Port == 0 {
		c.Server.HTTP.Port = 8080
	}
	if c.Server.GRPC.Port == 0 {
		c.Server.GRPC.Port = 9090
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Billing.Timeout == 0 {
		c.Billing.Timeout = 15 * time.Second
	}
	c.Flow.applyDefaults()
}
