// Package config defines the application configuration and its viper-backed
// loading. Defaults are registered on a viper instance so that config files
// and PHONEPILOT_* environment variables can override any individual key.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Model  ModelConfig  `mapstructure:"model" yaml:"model"`
	Agent  AgentConfig  `mapstructure:"agent" yaml:"agent"`
	Device DeviceConfig `mapstructure:"device" yaml:"device"`
	Timing TimingConfig `mapstructure:"timing" yaml:"timing"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// ModelConfig describes the OpenAI-compatible vision-language model endpoint.
type ModelConfig struct {
	BaseURL          string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey           string        `mapstructure:"api_key" yaml:"-"`
	ModelName        string        `mapstructure:"model_name" yaml:"model_name"`
	MaxTokens        int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature      float64       `mapstructure:"temperature" yaml:"temperature"`
	TopP             float64       `mapstructure:"top_p" yaml:"top_p"`
	FrequencyPenalty float64       `mapstructure:"frequency_penalty" yaml:"frequency_penalty"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// AgentConfig controls the behavior of the step loop.
type AgentConfig struct {
	MaxSteps      int    `mapstructure:"max_steps" yaml:"max_steps"`
	Lang          string `mapstructure:"lang" yaml:"lang"`
	SystemPrompt  string `mapstructure:"system_prompt" yaml:"system_prompt"`
	Verbose       bool   `mapstructure:"verbose" yaml:"verbose"`
	ScreenshotDir string `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
}

// DeviceConfig selects and tunes the device backend.
type DeviceConfig struct {
	Backend           string        `mapstructure:"backend" yaml:"backend"`
	ID                string        `mapstructure:"id" yaml:"id"`
	ADBPath           string        `mapstructure:"adb_path" yaml:"adb_path"`
	OperationTimeout  time.Duration `mapstructure:"operation_timeout" yaml:"operation_timeout"`
	ScreenshotTimeout time.Duration `mapstructure:"screenshot_timeout" yaml:"screenshot_timeout"`
}

// ActionTimingConfig holds the settling delays for the text-input choreography.
type ActionTimingConfig struct {
	KeyboardSwitchDelay  time.Duration `mapstructure:"keyboard_switch_delay" yaml:"keyboard_switch_delay"`
	TextClearDelay       time.Duration `mapstructure:"text_clear_delay" yaml:"text_clear_delay"`
	TextInputDelay       time.Duration `mapstructure:"text_input_delay" yaml:"text_input_delay"`
	KeyboardRestoreDelay time.Duration `mapstructure:"keyboard_restore_delay" yaml:"keyboard_restore_delay"`
}

// DeviceTimingConfig holds the post-operation settling delays for device
// primitives. The UI needs time to react before the next screenshot.
type DeviceTimingConfig struct {
	TapDelay          time.Duration `mapstructure:"tap_delay" yaml:"tap_delay"`
	DoubleTapDelay    time.Duration `mapstructure:"double_tap_delay" yaml:"double_tap_delay"`
	DoubleTapInterval time.Duration `mapstructure:"double_tap_interval" yaml:"double_tap_interval"`
	LongPressDelay    time.Duration `mapstructure:"long_press_delay" yaml:"long_press_delay"`
	LongPressDuration time.Duration `mapstructure:"long_press_duration" yaml:"long_press_duration"`
	SwipeDelay        time.Duration `mapstructure:"swipe_delay" yaml:"swipe_delay"`
	BackDelay         time.Duration `mapstructure:"back_delay" yaml:"back_delay"`
	HomeDelay         time.Duration `mapstructure:"home_delay" yaml:"home_delay"`
	LaunchDelay       time.Duration `mapstructure:"launch_delay" yaml:"launch_delay"`
}

// ConnectionTimingConfig holds delays for ADB server (re)connection.
type ConnectionTimingConfig struct {
	RestartDelay       time.Duration `mapstructure:"restart_delay" yaml:"restart_delay"`
	ServerRestartDelay time.Duration `mapstructure:"server_restart_delay" yaml:"server_restart_delay"`
	MaxConnectElapsed  time.Duration `mapstructure:"max_connect_elapsed" yaml:"max_connect_elapsed"`
}

// TimingConfig groups all delay settings.
type TimingConfig struct {
	Action     ActionTimingConfig     `mapstructure:"action" yaml:"action"`
	Device     DeviceTimingConfig     `mapstructure:"device" yaml:"device"`
	Connection ConnectionTimingConfig `mapstructure:"connection" yaml:"connection"`
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Unreachable with defaults only, but fail loudly if it ever happens.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "phonepilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Model --
	v.SetDefault("model.base_url", "http://localhost:8000/v1")
	v.SetDefault("model.api_key", "EMPTY")
	v.SetDefault("model.model_name", "autoglm-phone-9b")
	v.SetDefault("model.max_tokens", 3000)
	v.SetDefault("model.temperature", 0.0)
	v.SetDefault("model.top_p", 0.85)
	v.SetDefault("model.frequency_penalty", 0.2)
	v.SetDefault("model.request_timeout", "5m")

	// -- Agent --
	v.SetDefault("agent.max_steps", 100)
	v.SetDefault("agent.lang", "cn")
	v.SetDefault("agent.verbose", true)
	v.SetDefault("agent.screenshot_dir", "")

	// -- Device --
	v.SetDefault("device.backend", "adb")
	v.SetDefault("device.adb_path", "adb")
	v.SetDefault("device.operation_timeout", "10s")
	v.SetDefault("device.screenshot_timeout", "10s")

	// -- Timing --
	v.SetDefault("timing.action.keyboard_switch_delay", "1s")
	v.SetDefault("timing.action.text_clear_delay", "1s")
	v.SetDefault("timing.action.text_input_delay", "1s")
	v.SetDefault("timing.action.keyboard_restore_delay", "1s")
	v.SetDefault("timing.device.tap_delay", "1s")
	v.SetDefault("timing.device.double_tap_delay", "1s")
	v.SetDefault("timing.device.double_tap_interval", "100ms")
	v.SetDefault("timing.device.long_press_delay", "1s")
	v.SetDefault("timing.device.long_press_duration", "3s")
	v.SetDefault("timing.device.swipe_delay", "1s")
	v.SetDefault("timing.device.back_delay", "1s")
	v.SetDefault("timing.device.home_delay", "1s")
	v.SetDefault("timing.device.launch_delay", "1s")
	v.SetDefault("timing.connection.restart_delay", "2s")
	v.SetDefault("timing.connection.server_restart_delay", "1s")
	v.SetDefault("timing.connection.max_connect_elapsed", "30s")
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	v.BindEnv("model.api_key", "PHONEPILOT_MODEL_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Agent.MaxSteps <= 0 {
		return fmt.Errorf("agent.max_steps must be a positive integer")
	}
	if c.Model.BaseURL == "" {
		return fmt.Errorf("model.base_url is a required configuration field")
	}
	if c.Model.ModelName == "" {
		return fmt.Errorf("model.model_name is a required configuration field")
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("model.max_tokens must be a positive integer")
	}
	switch c.Device.Backend {
	case "adb":
	default:
		return fmt.Errorf("unknown device.backend: %q", c.Device.Backend)
	}
	return nil
}
