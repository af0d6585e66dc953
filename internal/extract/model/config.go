package model

import (
	"fmt"
	"time"
)

// ================ Config ================
type LLMConfig struct {
	Provider    string  `envconfig:"LLM_PROVIDER" default:"gemini"`
	Model       string  `envconfig:"LLM_MODEL" default:"gemini-2.5-flash"`
	Temperature float32 `envconfig:"LLM_TEMPERATURE" default:"0.1"`
	MaxTokens   int     `envconfig:"LLM_MAX_TOKENS" default:"4000"`

	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
}

type ExtractConfig struct {
	MaxRetries int    `envconfig:"EXTRACT_MAX_RETRIES" default:"3"`
	MaxTurns   int    `envconfig:"EXTRACT_MAX_TURNS" default:"8"`
	CacheTTL   string `envconfig:"EXTRACT_CACHE_TTL" default:"24h"`
}

// TTL parses CacheTTL. An empty value means entries never expire.
func (c ExtractConfig) TTL() (time.Duration, error) {
	if c.CacheTTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid EXTRACT_CACHE_TTL %q: %w", c.CacheTTL, err)
	}
	return ttl, nil
}
