package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "phonepilot", cfg.Logger.ServiceName)
	assert.Equal(t, "http://localhost:8000/v1", cfg.Model.BaseURL)
	assert.Equal(t, "autoglm-phone-9b", cfg.Model.ModelName)
	assert.Equal(t, 3000, cfg.Model.MaxTokens)
	assert.Equal(t, 100, cfg.Agent.MaxSteps)
	assert.Equal(t, "adb", cfg.Device.Backend)
	assert.Equal(t, time.Second, cfg.Timing.Action.KeyboardSwitchDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.Timing.Device.DoubleTapInterval)
	assert.Equal(t, 3*time.Second, cfg.Timing.Device.LongPressDuration)

	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromViper(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("agent.max_steps", 25)
	v.Set("model.model_name", "custom-model")
	v.Set("timing.device.tap_delay", "250ms")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Agent.MaxSteps)
	assert.Equal(t, "custom-model", cfg.Model.ModelName)
	assert.Equal(t, 250*time.Millisecond, cfg.Timing.Device.TapDelay)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max steps", func(c *Config) { c.Agent.MaxSteps = 0 }},
		{"empty base url", func(c *Config) { c.Model.BaseURL = "" }},
		{"empty model name", func(c *Config) { c.Model.ModelName = "" }},
		{"zero max tokens", func(c *Config) { c.Model.MaxTokens = 0 }},
		{"unknown backend", func(c *Config) { c.Device.Backend = "hdc" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
