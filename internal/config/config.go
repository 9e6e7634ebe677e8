package config

import (
	"errors"
	"os"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	LLM      LLMConfig     `mapstructure:"llm"`
	Server   ServerConfig  `mapstructure:"server"`
	Storage  StorageConfig `mapstructure:"storage"`
	Chat     ChatConfig    `mapstructure:"chat"`
	LogLevel string        `mapstructure:"log_level"`
}

// LLMConfig holds the completion-service configuration.
type LLMConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	MaxTokens      int    `mapstructure:"max_tokens"`
	SystemPrompt   string `mapstructure:"system_prompt"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// StorageConfig holds the durable-store configuration.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// ChatConfig holds chat-endpoint behavior switches.
type ChatConfig struct {
	// RequireEmail enables the variant that rejects requests without a
	// submitter email tag.
	RequireEmail bool `mapstructure:"require_email"`
}

// Load reads configuration from the YAML file pointed at by CONFIG_PATH
// (default ./config.yaml) and from the environment. Environment variables
// OPENAI_API_KEY, DATABASE_PATH and PORT override their file counterparts,
// and a missing file is not an error when no explicit path was given.
func Load() (*Config, error) {
	v := viper.New()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("llm.max_tokens", 300)
	v.SetDefault("llm.timeout_seconds", 30)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "3000")
	v.SetDefault("storage.path", "conversations.db")
	v.SetDefault("log_level", "info")

	// Environment-level settings delivered by the deployment, per the
	// original service's contract.
	_ = v.BindEnv("llm.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("storage.path", "DATABASE_PATH")
	_ = v.BindEnv("server.port", "PORT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || os.Getenv("CONFIG_PATH") != "" {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
