package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
jwt:
  secret: test-secret
billing:
  base_url: http://billing.local
redis:
  enabled: true
  addr: localhost:6379
  invalidation_channel: billing.invalidate
flow:
  plans_file: ./configs/plans.yaml
`

func writeConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "billing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("CONFIG_PATH", path)
}

func TestLoadConfig_Defaults(t *testing.T) {
	writeConfig(t, minimalConfig)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.Billing.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Flow.AutoCloseDelay)
	assert.Equal(t, "backend", cfg.Flow.Tokenizer)
	assert.Equal(t, "headless", cfg.Flow.InputMode)
	assert.Equal(t, "localhost:6379", cfg.Redis.Options.Addr)
	assert.Equal(t, "billing.invalidate", cfg.Redis.InvalidationChannel)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	writeConfig(t, minimalConfig)
	t.Setenv("BILLING_BILLING_BASE_URL", "http://billing.internal")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://billing.internal", cfg.Billing.BaseURL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing jwt secret", body: "billing:\n  base_url: http://billing.local\nflow:\n  plans_file: plans.yaml\n"},
		{name: "bad base url", body: "jwt:\n  secret: s\nbilling:\n  base_url: not a url\nflow:\n  plans_file: plans.yaml\n"},
		{name: "unknown tokenizer", body: minimalConfig + "  tokenizer: paypal\n"},
		{name: "stripe without key", body: minimalConfig + "  tokenizer: stripe\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfig(t, tt.body)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
