package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from file and environment.
type Loader struct {
	configPath string
}

// NewLoader creates a config loader. An empty path means environment
// and defaults only.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load reads the configuration. Precedence: environment (CHATBOX_*
// with dots replaced by underscores, e.g. CHATBOX_AI_API_KEY), then
// the config file, then defaults.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("ai.api_key", defaults.AI.APIKey)
	v.SetDefault("ai.base_url", defaults.AI.BaseURL)
	v.SetDefault("ai.model", defaults.AI.Model)
	v.SetDefault("ai.vision_model", defaults.AI.VisionModel)
	v.SetDefault("ai.max_tokens", defaults.AI.MaxTokens)
	v.SetDefault("ai.vision_max_tokens", defaults.AI.VisionMaxTokens)
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("uploads.dir", defaults.Uploads.Dir)
	v.SetDefault("uploads.max_bytes", defaults.Uploads.MaxBytes)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.file", defaults.Logging.File)
	v.SetDefault("logging.pretty", defaults.Logging.Pretty)

	v.SetEnvPrefix("CHATBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.configPath != "" {
		if _, err := os.Stat(l.configPath); err == nil {
			v.SetConfigFile(l.configPath)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}
