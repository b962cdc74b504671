package config

import (
	"time"

	"github.com/alderburg/Teste-sub001/pkg/messaging"
)

// BillingAPIConfig points at the authoritative billing backend
type BillingAPIConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// StripeConfig is used when flow.tokenizer is "stripe"
type StripeConfig struct {
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	// APIURL overrides the Stripe API endpoint (stripe-mock, tests)
	APIURL string `yaml:"api_url" mapstructure:"api_url"`
}

type RedisConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	messaging.Options `yaml:",inline" mapstructure:",squash"`
	// InvalidationChannel receives account ids whose cached billing data is stale
	InvalidationChannel string `yaml:"invalidation_channel" mapstructure:"invalidation_channel"`
	// NotificationChannel receives subscription success notifications
	NotificationChannel string `yaml:"notification_channel" mapstructure:"notification_channel"`
}

// FlowConfig tunes the plan-change flow
type FlowConfig struct {
	PlansFile         string        `yaml:"plans_file" mapstructure:"plans_file" validate:"required"`
	Tokenizer         string        `yaml:"tokenizer" mapstructure:"tokenizer" validate:"omitempty,oneof=backend stripe"`
	InputMode         string        `yaml:"input_mode" mapstructure:"input_mode" validate:"omitempty,oneof=interactive headless"`
	AutoCloseDelay    time.Duration `yaml:"auto_close_delay" mapstructure:"auto_close_delay"`
	MaxOpenFlows      int           `yaml:"max_open_flows" mapstructure:"max_open_flows"`
	FlowTTL           time.Duration `yaml:"flow_ttl" mapstructure:"flow_ttl"`
	MethodCacheSize   int           `yaml:"method_cache_size" mapstructure:"method_cache_size"`
	MethodCacheTTL    time.Duration `yaml:"method_cache_ttl" mapstructure:"method_cache_ttl"`
	AuditWriteTimeout time.Duration `yaml:"audit_write_timeout" mapstructure:"audit_write_timeout"`
}

func (f *FlowConfig) applyDefaults() {
	if f.Tokenizer == "" {
		f.Tokenizer = "backend"
	}
	if f.InputMode == "" {
		f.InputMode = "headless"
	}
	if f.AutoCloseDelay == 0 {
		f.AutoCloseDelay = 3 * time.Second
	}
	if f.MaxOpenFlows == 0 {
		f.MaxOpenFlows = 10000
	}
	if f.FlowTTL == 0 {
		f.FlowTTL = 30 * time.Minute
	}
	if f.MethodCacheSize == 0 {
		f.MethodCacheSize = 1024
	}
	if f.MethodCacheTTL == 0 {
		f.MethodCacheTTL = 5 * time.Minute
	}
	if f.AuditWriteTimeout == 0 {
		f.AuditWriteTimeout = 2 * time.Second
	}
}
