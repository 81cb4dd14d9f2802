package config

import (
	"encoding/json"
	"fmt"
)

// Config is the chatbox runtime configuration.
type Config struct {
	AI      AIConfig      `json:"ai" mapstructure:"ai"`
	Server  ServerConfig  `json:"server" mapstructure:"server"`
	Uploads UploadsConfig `json:"uploads" mapstructure:"uploads"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// AIConfig holds model provider configuration.
type AIConfig struct {
	APIKey          string `json:"api_key" mapstructure:"api_key"`
	BaseURL         string `json:"base_url" mapstructure:"base_url"`
	Model           string `json:"model" mapstructure:"model"`
	VisionModel     string `json:"vision_model" mapstructure:"vision_model"`
	MaxTokens       int    `json:"max_tokens" mapstructure:"max_tokens"`
	VisionMaxTokens int    `json:"vision_max_tokens" mapstructure:"vision_max_tokens"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// UploadsConfig holds file upload configuration.
type UploadsConfig struct {
	Dir      string `json:"dir" mapstructure:"dir"`
	MaxBytes int64  `json:"max_bytes" mapstructure:"max_bytes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file" mapstructure:"file"`
	Pretty bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	return &Config{
		AI: AIConfig{
			BaseURL:         "https://api.groq.com/openai/v1",
			Model:           "llama-3.1-8b-instant",
			VisionModel:     "meta-llama/llama-4-scout-17b-16e-instruct",
			MaxTokens:       500,
			VisionMaxTokens: 1024,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Uploads: UploadsConfig{
			Dir:      "uploads",
			MaxBytes: 10 * 1024 * 1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// String returns a JSON representation of the config with the API key
// masked.
func (c *Config) String() string {
	masked := *c
	if masked.AI.APIKey != "" {
		masked.AI.APIKey = "***"
	}
	data, _ := json.MarshalIndent(&masked, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required")
	}
	if c.AI.Model == "" {
		return fmt.Errorf("ai.model is required")
	}
	if c.AI.VisionModel == "" {
		return fmt.Errorf("ai.vision_model is required")
	}
	if c.AI.MaxTokens <= 0 {
		return fmt.Errorf("ai.max_tokens must be positive")
	}
	if c.AI.VisionMaxTokens <= 0 {
		return fmt.Errorf("ai.vision_max_tokens must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Uploads.Dir == "" {
		return fmt.Errorf("uploads.dir is required")
	}
	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("uploads.max_bytes must be positive")
	}
	return nil
}
