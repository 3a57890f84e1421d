// Package config handles remi configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all remi configuration.
type Config struct {
	Ollama    OllamaConfig    `mapstructure:"ollama" yaml:"ollama"`
	Agent     AgentConfig     `mapstructure:"agent" yaml:"agent"`
	Reminders RemindersConfig `mapstructure:"reminders" yaml:"reminders"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// OllamaConfig configures the LLM backend.
type OllamaConfig struct {
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	Model          string `mapstructure:"model" yaml:"model"`
	Stream         bool   `mapstructure:"stream" yaml:"stream"`
	Think          bool   `mapstructure:"think" yaml:"think"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (c OllamaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AgentConfig bounds the state machine and conversation history.
type AgentConfig struct {
	MaxInternalSteps   int    `mapstructure:"max_internal_steps" yaml:"max_internal_steps"`
	MaxHistoryMessages int    `mapstructure:"max_history_messages" yaml:"max_history_messages"`
	SystemPromptPath   string `mapstructure:"system_prompt_path" yaml:"system_prompt_path"`
}

// RemindersConfig configures reminder storage and the due-reminder poller.
type RemindersConfig struct {
	DBPath      string `mapstructure:"db_path" yaml:"db_path"`
	PollSeconds int    `mapstructure:"poll_seconds" yaml:"poll_seconds"`
}

// PollInterval returns the poll cadence as a duration.
func (c RemindersConfig) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

// LogConfig controls logging behavior.
type LogConfig struct {
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// Default returns the default configuration. The reminder database path is
// left empty here and resolved against the config dir during Load.
func Default() Config {
	return Config{
		Ollama: OllamaConfig{
			BaseURL:        "http://localhost:11434",
			Model:          "qwen3:8b",
			Stream:         true,
			Think:          false,
			TimeoutSeconds: 120,
		},
		Agent: AgentConfig{
			MaxInternalSteps:   8,
			MaxHistoryMessages: 20,
		},
		Reminders: RemindersConfig{
			PollSeconds: 30,
		},
	}
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".remi"), nil
}

// ConfigPath returns the user-level configuration file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads configuration with the precedence REMI_* environment variables,
// ./config.local.yaml, ./config.yaml, ~/.remi/config.yaml, built-in defaults.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := ConfigDir(); err == nil {
		v.AddConfigPath(dir)
	}
	setDefaults(v)

	v.SetEnvPrefix("REMI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	// config.local.yaml layers machine-specific overrides on top of the
	// shared file without being committed anywhere.
	if _, err := os.Stat("config.local.yaml"); err == nil {
		v.SetConfigFile("config.local.yaml")
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("merge local config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Reminders.DBPath == "" {
		if dir, err := ConfigDir(); err == nil {
			cfg.Reminders.DBPath = filepath.Join(dir, "remi.db")
		} else {
			cfg.Reminders.DBPath = "remi.db"
		}
	} else {
		cfg.Reminders.DBPath = expandHome(cfg.Reminders.DBPath)
	}
	cfg.Agent.SystemPromptPath = expandHome(cfg.Agent.SystemPromptPath)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("ollama.base_url", def.Ollama.BaseURL)
	v.SetDefault("ollama.model", def.Ollama.Model)
	v.SetDefault("ollama.stream", def.Ollama.Stream)
	v.SetDefault("ollama.think", def.Ollama.Think)
	v.SetDefault("ollama.timeout_seconds", def.Ollama.TimeoutSeconds)
	v.SetDefault("agent.max_internal_steps", def.Agent.MaxInternalSteps)
	v.SetDefault("agent.max_history_messages", def.Agent.MaxHistoryMessages)
	v.SetDefault("agent.system_prompt_path", def.Agent.SystemPromptPath)
	v.SetDefault("reminders.db_path", def.Reminders.DBPath)
	v.SetDefault("reminders.poll_seconds", def.Reminders.PollSeconds)
	v.SetDefault("log.debug", def.Log.Debug)
}

// Validate checks ranges and required fields. Each message names the env var
// and config key that fix it.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Ollama.BaseURL) == "" {
		return fmt.Errorf("ollama base URL must not be empty. Set REMI_OLLAMA_BASE_URL or config ollama.base_url")
	}
	if strings.TrimSpace(c.Ollama.Model) == "" {
		return fmt.Errorf("ollama model must not be empty. Set REMI_OLLAMA_MODEL or config ollama.model")
	}
	if c.Ollama.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be greater than zero, got %d. Set REMI_OLLAMA_TIMEOUT_SECONDS or config ollama.timeout_seconds", c.Ollama.TimeoutSeconds)
	}
	if c.Agent.MaxInternalSteps <= 0 {
		return fmt.Errorf("max_internal_steps must be greater than zero, got %d. Set REMI_AGENT_MAX_INTERNAL_STEPS or config agent.max_internal_steps", c.Agent.MaxInternalSteps)
	}
	if c.Agent.MaxHistoryMessages < 2 {
		return fmt.Errorf("max_history_messages must be at least 2, got %d. Set REMI_AGENT_MAX_HISTORY_MESSAGES or config agent.max_history_messages", c.Agent.MaxHistoryMessages)
	}
	if c.Reminders.PollSeconds <= 0 {
		return fmt.Errorf("poll_seconds must be greater than zero, got %d. Set REMI_REMINDERS_POLL_SECONDS or config reminders.poll_seconds", c.Reminders.PollSeconds)
	}
	return nil
}

// Save writes the configuration as YAML to the given path.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
