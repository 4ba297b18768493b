package llm

import (
	"fmt"
	"strings"
)

// Endpoint kinds. Both speak "prompt in, text out"; the wire shapes differ.
const (
	KindOllama = "ollama" // POST {base}/api/chat
	KindOpenAI = "openai" // POST {base}/chat/completions
)

// Config holds the configuration for the local inference endpoint.
//
// Environment Variables (read by config.NewFromEnv):
// - LLM_ENDPOINT: Base URL (default: http://localhost:11434)
// - LLM_KIND: "ollama" or "openai" (default: ollama)
// - LLM_API_KEY: Bearer token, only meaningful for openai-style endpoints
// - LLM_MODEL: Model name (default: translategemma)
// - LLM_MAX_TOKENS: Max tokens per response (default: 8000)
// - LLM_TEMPERATURE: Sampling temperature (default: 0.3)
// - LLM_TIMEOUT: Request timeout in seconds (default: 300)
// - LLM_MAX_ATTEMPTS: Attempts per request before giving up (default: 3)
// - LLM_RETRY_DELAY: Base backoff delay in seconds (default: 2)
type Config struct {
	Endpoint    string  `json:"endpoint"`
	Kind        string  `json:"kind"`
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
	MaxAttempts int     `json:"max_attempts"`
	RetryDelay  int     `json:"retry_delay"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	switch c.Kind {
	case KindOllama, KindOpenAI:
	default:
		return fmt.Errorf("unsupported endpoint kind: %s", c.Kind)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.Timeout < 1 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be greater than 0")
	}
	return nil
}

// GetHeaders returns the headers for endpoint requests.
func (c *Config) GetHeaders() map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if c.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.APIKey
	}
	return headers
}

// BaseURL returns the endpoint with any trailing slash removed.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.Endpoint, "/")
}
