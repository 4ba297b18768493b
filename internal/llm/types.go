package llm

import "fmt"

// Message represents a chat message.
//
// Role: "system", "user", or "assistant"
// Content: Text content of the message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionRequest is the OpenAI-compatible request body.
type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream"`
}

// chatCompletionResponse is the OpenAI-compatible response body.
type chatCompletionResponse struct {
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// ollamaChatRequest is the Ollama /api/chat request body.
type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaChatResponse is the Ollama /api/chat response body.
type ollamaChatResponse struct {
	Message Message `json:"message"`
	Error   string  `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code,omitempty"`
}

// EndpointError classifies failures talking to the inference endpoint.
// Unavailable covers connection refused and timeouts; everything else is
// an error status from a reachable endpoint. Both are retryable up to the
// configured attempt budget.
type EndpointError struct {
	Unavailable bool
	StatusCode  int
	Message     string
	Cause       error
}

func (e *EndpointError) Error() string {
	if e.Unavailable {
		return fmt.Sprintf("endpoint unavailable: %s", e.Message)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("endpoint returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("endpoint error: %s", e.Message)
}

func (e *EndpointError) Unwrap() error {
	return e.Cause
}
