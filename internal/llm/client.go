package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/subgemma/subtrans/pkg/log"
)

// ChatClient is the narrow surface the translation pipeline needs from an
// inference endpoint: one prompt in, one raw text out.
type ChatClient interface {
	Chat(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Client talks to a locally hosted inference endpoint. It issues one
// synchronous request per Chat call and retries transient failures with
// linear backoff. Thread-safe for concurrent use.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new endpoint client with the given configuration.
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}, nil
}

// Chat sends one prompt to the endpoint and returns the raw response text.
// The client's job ends at "got a response string": an empty but
// successful response is returned as-is for the realigner to judge.
func (c *Client) Chat(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(c.config.RetryDelay*(attempt-1)) * time.Second
			log.Warn("endpoint request failed (attempt %d/%d), retrying in %s: %v",
				attempt-1, c.config.MaxAttempts, delay, lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		content, err := c.chatOnce(ctx, systemPrompt, userMessage)
		if err == nil {
			return content, nil
		}
		if ctx.Err() != nil {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

func (c *Client) chatOnce(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userMessage},
	}

	switch c.config.Kind {
	case KindOpenAI:
		return c.openAIChat(ctx, messages)
	default:
		return c.ollamaChat(ctx, messages)
	}
}

func (c *Client) ollamaChat(ctx context.Context, messages []Message) (string, error) {
	request := ollamaChatRequest{
		Model:    c.config.Model,
		Messages: messages,
		Stream:   false,
		Options: ollamaOptions{
			Temperature: c.config.Temperature,
			NumPredict:  c.config.MaxTokens,
		},
	}

	body, err := c.post(ctx, c.config.BaseURL()+"/api/chat", request)
	if err != nil {
		return "", err
	}

	var response ollamaChatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", &EndpointError{Message: "failed to parse response", Cause: err}
	}
	if response.Error != "" {
		return "", &EndpointError{Message: response.Error}
	}
	return response.Message.Content, nil
}

func (c *Client) openAIChat(ctx context.Context, messages []Message) (string, error) {
	request := chatCompletionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		Stream:      false,
	}

	body, err := c.post(ctx, c.config.BaseURL()+"/chat/completions", request)
	if err != nil {
		return "", err
	}

	var response chatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", &EndpointError{Message: "failed to parse response", Cause: err}
	}
	if response.Error != nil && response.Error.Message != "" {
		return "", &EndpointError{Message: response.Error.Message}
	}
	if len(response.Choices) == 0 {
		return "", &EndpointError{Message: "no choices in response"}
	}
	return response.Choices[0].Message.Content, nil
}

// post sends a JSON payload and returns the response body, classifying
// transport failures as unavailable and error statuses as model errors.
func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range c.config.GetHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &EndpointError{Unavailable: true, Message: err.Error(), Cause: err}
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &EndpointError{Unavailable: true, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &EndpointError{
			StatusCode: resp.StatusCode,
			Message:    string(responseBody),
		}
	}

	return responseBody, nil
}
