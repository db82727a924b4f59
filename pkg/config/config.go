package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so allow_from can contain both "123" and 123.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	// Try []string first
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	// Try []interface{} to handle mixed types
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Assistant AssistantConfig `json:"assistant"`
	Channels  ChannelsConfig  `json:"channels"`
	Providers ProvidersConfig `json:"providers"`
	Reminders RemindersConfig `json:"reminders"`
	mu        sync.RWMutex
}

type AssistantConfig struct {
	Workspace    string  `json:"workspace" env:"TASKWISE_ASSISTANT_WORKSPACE"`
	Provider     string  `json:"provider" env:"TASKWISE_ASSISTANT_PROVIDER"`
	Model        string  `json:"model" env:"TASKWISE_ASSISTANT_MODEL"`
	MaxTokens    int     `json:"max_tokens" env:"TASKWISE_ASSISTANT_MAX_TOKENS"`
	Temperature  float64 `json:"temperature" env:"TASKWISE_ASSISTANT_TEMPERATURE"`
	HistoryLimit int     `json:"history_limit" env:"TASKWISE_ASSISTANT_HISTORY_LIMIT"`
	DefaultUser  string  `json:"default_user" env:"TASKWISE_ASSISTANT_DEFAULT_USER"`
}

type ChannelsConfig struct {
	Discord DiscordConfig `json:"discord"`
}

type DiscordConfig struct {
	Enabled   bool                `json:"enabled" env:"TASKWISE_CHANNELS_DISCORD_ENABLED"`
	Token     string              `json:"token" env:"TASKWISE_CHANNELS_DISCORD_TOKEN"`
	AllowFrom FlexibleStringSlice `json:"allow_from" env:"TASKWISE_CHANNELS_DISCORD_ALLOW_FROM"`
}

type ProvidersConfig struct {
	OpenRouter ProviderConfig `json:"openrouter" envPrefix:"TASKWISE_PROVIDERS_OPENROUTER_"`
	Cohere     ProviderConfig `json:"cohere" envPrefix:"TASKWISE_PROVIDERS_COHERE_"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key" env:"API_KEY"`
	APIBase string `json:"api_base" env:"API_BASE"`
	Proxy   string `json:"proxy,omitempty" env:"PROXY"`
}

type RemindersConfig struct {
	Enabled  bool   `json:"enabled" env:"TASKWISE_REMINDERS_ENABLED"`
	Schedule string `json:"schedule" env:"TASKWISE_REMINDERS_SCHEDULE"` // cron expression
	Channel  string `json:"channel" env:"TASKWISE_REMINDERS_CHANNEL"`
	ChatID   string `json:"chat_id" env:"TASKWISE_REMINDERS_CHAT_ID"`
}

func DefaultConfig() *Config {
	return &Config{
		Assistant: AssistantConfig{
			Workspace:    "~/.taskwise",
			Provider:     "openrouter",
			Model:        "openai/gpt-5.2",
			MaxTokens:    1024,
			Temperature:  0.7,
			HistoryLimit: 8,
			DefaultUser:  "local",
		},
		Channels: ChannelsConfig{
			Discord: DiscordConfig{
				Enabled:   false,
				Token:     "",
				AllowFrom: FlexibleStringSlice{},
			},
		},
		Providers: ProvidersConfig{
			OpenRouter: ProviderConfig{},
			Cohere:     ProviderConfig{},
		},
		Reminders: RemindersConfig{
			Enabled:  false,
			Schedule: "*/15 * * * *",
			Channel:  "discord",
			ChatID:   "",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// WorkspacePath returns the expanded directory holding databases and state.
func (c *Config) WorkspacePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Assistant.Workspace)
}

// TaskDBPath is the tasks database location inside the workspace.
func (c *Config) TaskDBPath() string {
	return filepath.Join(c.WorkspacePath(), "tasks.db")
}

// MemoryDBPath is the conversation database location inside the workspace.
func (c *Config) MemoryDBPath() string {
	return filepath.Join(c.WorkspacePath(), "memory.db")
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
