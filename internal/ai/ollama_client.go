package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// OllamaClient is a minimal HTTP client for a local Ollama runtime. It maps
// the native /api/chat surface onto the shared request/response types.
type OllamaClient struct {
	httpClient       *http.Client
	host             string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

// NewOllamaClient creates a client targeting the given host
// (e.g., http://localhost:11434).
func NewOllamaClient(host string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *OllamaClient {
	if host == "" {
		host = "http://localhost:11434"
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 2
	}
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 1 * time.Second
	}
	return &OllamaClient{
		httpClient:       &http.Client{Timeout: httpTimeout},
		host:             host,
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
	}
}

// Structures aligned with Ollama /api/chat
type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}
type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

func (c *OllamaClient) buildRequest(req GenerateRequest, stream bool) ([]byte, error) {
	messages := make([]ollamaChatMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = ollamaChatMessage{Role: msg.Role, Content: msg.Content}
	}
	oreq := ollamaChatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   stream,
		Options:  map[string]any{},
	}
	if req.Temperature > 0 {
		oreq.Options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		oreq.Options["num_predict"] = req.MaxTokens
	}
	payload, err := json.Marshal(oreq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return payload, nil
}

// ollamaError decodes an Ollama error body and classifies it by status.
// Error payloads vary between {"error": "..."} and {"message": "..."};
// gjson keeps the extraction tolerant.
func ollamaError(statusCode int, body []byte) error {
	msg := gjson.GetBytes(body, "error").String()
	if msg == "" {
		msg = gjson.GetBytes(body, "message").String()
	}
	apiErr := &APIError{StatusCode: statusCode, Message: msg}
	switch {
	case statusCode == http.StatusNotFound:
		// Likely a model that has not been pulled
		return &ModelNotFoundError{APIError: apiErr}
	case statusCode >= 500:
		return &ServerError{APIError: apiErr}
	case statusCode == http.StatusBadRequest:
		return &BadRequestError{APIError: apiErr}
	}
	return apiErr
}

// Generate sends a chat request to Ollama and maps the response to
// GenerateResponse.
func (c *OllamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}
	payload, err := c.buildRequest(req, false)
	if err != nil {
		return nil, err
	}

	endpoint := c.host + "/api/chat"
	maxAttempts := c.retryMaxAttempts
	backoff := c.retryBaseDelay
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if isRetryableNetErr(err) && attempt < maxAttempts {
				time.Sleep(withJitter(backoff))
				backoff *= 2
				continue
			}
			return nil, &UnreachableError{Host: c.host, Err: err}
		}
		var out GenerateResponse
		func() {
			defer resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
				lastErr = ollamaError(resp.StatusCode, body)
				return
			}
			var oresp ollamaChatResponse
			if err := json.NewDecoder(resp.Body).Decode(&oresp); err != nil {
				lastErr = fmt.Errorf("decode response: %w", err)
				return
			}
			out.ID = fmt.Sprintf("ollama_%d", time.Now().UnixNano())
			out.Choices = []Choice{{Message: Message{Role: "assistant", Content: oresp.Message.Content}}}
			lastErr = nil
		}()
		if lastErr == nil {
			return &out, nil
		}
		if attempt < maxAttempts {
			time.Sleep(withJitter(backoff))
			backoff *= 2
			continue
		}
		break
	}
	return nil, lastErr
}

// GenerateStream streams partial deltas from Ollama's JSON-lines stream.
func (c *OllamaClient) GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error {
	if req.Model == "" {
		return errors.New("model cannot be empty")
	}
	if len(req.Messages) == 0 {
		return errors.New("messages cannot be empty")
	}
	payload, err := c.buildRequest(req, true)
	if err != nil {
		return err
	}

	endpoint := c.host + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &UnreachableError{Host: c.host, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return ollamaError(resp.StatusCode, body)
	}

	dec := json.NewDecoder(resp.Body)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var oresp ollamaChatResponse
		if err := dec.Decode(&oresp); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("decode stream: %w", err)
		}
		if msg := oresp.Message.Content; msg != "" {
			onDelta(msg)
		}
		if oresp.Done {
			break
		}
	}
	return nil
}
