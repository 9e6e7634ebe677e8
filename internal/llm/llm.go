package llm

import (
	"github.com/sashabaranov/go-openai"

	"github.com/nicofic01/chatbot-backend/internal/config"
)

// NewClient creates a new OpenAI client from the configuration. A custom
// base URL allows pointing the service at any OpenAI-compatible endpoint.
func NewClient(cfg config.LLMConfig) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return openai.NewClientWithConfig(clientConfig)
}
