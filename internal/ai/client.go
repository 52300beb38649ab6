package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Client talks to an OpenAI-compatible chat-completions endpoint. The same
// client serves OpenAI, DashScope (qwen) and BigModel (chatglm); only the
// base URL and the API key differ per provider.
type Client struct {
	api              *openai.Client
	provider         string
	apiKey           string
	host             string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerateRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Choice struct {
	Message Message `json:"message"`
}

type GenerateResponse struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// APIError represents a structured API error response.
type APIError struct {
	StatusCode int            `json:"-"`
	Code       string         `json:"code,omitempty"`
	Message    string         `json:"message,omitempty"`
	Raw        map[string]any `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		if e.Code != "" {
			return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
		}
		return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status=%d", e.StatusCode)
}

// NewClient builds a provider client with custom HTTP timeout and
// retry/backoff behavior. The base URL is resolved from the provider name.
func NewClient(provider, apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	return NewClientWithBaseURL(provider, apiKey, httpTimeout, retryMax, baseDelay, maxDelay, "")
}

// NewClientWithBaseURL allows injecting a custom base URL (config override
// and tests).
func NewClientWithBaseURL(provider, apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, baseURL string) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	if baseURL == "" {
		baseURL = BaseURLFor(provider)
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: httpTimeout}
	return &Client{
		api:              openai.NewClientWithConfig(cfg),
		provider:         provider,
		apiKey:           apiKey,
		host:             cfg.BaseURL,
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
	}
}

func (c *Client) requireKey() error {
	if c.apiKey != "" {
		return nil
	}
	if key, ok := EnvKeyFor(c.provider); ok {
		return fmt.Errorf("%s is missing", key)
	}
	return errors.New("api key is missing")
}

func (c *Client) ValidateModel(model string) error {
	if model == "" {
		return errors.New("model cannot be empty")
	}
	return nil
}

func toChatMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

func (c *Client) chatRequest(req GenerateRequest) openai.ChatCompletionRequest {
	creq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: toChatMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		creq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		creq.Temperature = float32(req.Temperature)
	}
	return creq
}

// Generate performs one chat-completion round trip with retries for
// rate limits, server errors and unreachable endpoints.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}
	if err := c.ValidateModel(req.Model); err != nil {
		return nil, err
	}
	creq := c.chatRequest(req)

	maxAttempts := c.retryMaxAttempts
	backoff := c.retryBaseDelay
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := c.api.CreateChatCompletion(ctx, creq)
		if err == nil {
			out := &GenerateResponse{
				ID: resp.ID,
				Usage: Usage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				},
			}
			for _, ch := range resp.Choices {
				out.Choices = append(out.Choices, Choice{Message: Message{Role: ch.Message.Role, Content: ch.Message.Content}})
			}
			return out, nil
		}
		lastErr = c.classify(err)
		if !retryable(lastErr) || attempt == maxAttempts {
			return nil, lastErr
		}
		// Respect a Retry-After hint when the provider sends one; otherwise
		// exponential backoff with jitter and a cap.
		var sleep time.Duration
		var rl *RateLimitError
		if errors.As(lastErr, &rl) && rl.RetryAfter > 0 {
			sleep = rl.RetryAfter
		} else {
			sleep = withJitter(backoff)
			if c.retryMaxDelay > 0 && sleep > c.retryMaxDelay {
				sleep = c.retryMaxDelay
			}
		}
		time.Sleep(sleep)
		backoff *= 2
	}
	return nil, lastErr
}

// GenerateStream streams content deltas from the provider's SSE stream.
// onDelta is called for each partial content chunk.
func (c *Client) GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error {
	if err := c.requireKey(); err != nil {
		return err
	}
	if err := c.ValidateModel(req.Model); err != nil {
		return err
	}
	creq := c.chatRequest(req)
	creq.Stream = true

	stream, err := c.api.CreateChatCompletionStream(ctx, creq)
	if err != nil {
		return c.classify(err)
	}
	defer stream.Close()
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stream read: %w", err)
		}
		if len(chunk.Choices) > 0 {
			onDelta(chunk.Choices[0].Delta.Content)
		}
	}
}

// Embed generates embeddings for the given inputs using the provider's
// embeddings endpoint. Returns one vector per input string.
func (c *Client) Embed(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}
	if model == "" {
		return nil, errors.New("embedding model cannot be empty")
	}
	if len(inputs) == 0 {
		return nil, errors.New("inputs cannot be empty")
	}
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: inputs,
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, c.classify(err)
	}
	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// classify maps client library transport and API errors to this package's
// typed errors.
func (c *Client) classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var aerr *openai.APIError
	if errors.As(err, &aerr) {
		apiErr := &APIError{StatusCode: aerr.HTTPStatusCode, Message: aerr.Message}
		if code, ok := aerr.Code.(string); ok {
			apiErr.Code = code
		}
		return classifyAPIError(apiErr)
	}
	var rerr *openai.RequestError
	if errors.As(err, &rerr) {
		return classifyAPIError(&APIError{StatusCode: rerr.HTTPStatusCode, Message: rerr.Error()})
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return &UnreachableError{Host: c.host, Err: uerr.Err}
	}
	if isRetryableNetErr(err) {
		return &UnreachableError{Host: c.host, Err: err}
	}
	return fmt.Errorf("http request: %w", err)
}

// retryable reports whether a classified error is worth another attempt.
func retryable(err error) bool {
	var rl *RateLimitError
	var se *ServerError
	var ue *UnreachableError
	return errors.As(err, &rl) || errors.As(err, &se) || errors.As(err, &ue)
}

func isRetryableNetErr(err error) bool {
	// net errors like timeouts
	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return true
		}
	}
	// EOF or connection reset
	if errors.Is(err, io.EOF) {
		return true
	}
	return false
}

// classifyAPIError maps a generic APIError to typed errors for better UX.
func classifyAPIError(apiErr *APIError) error {
	sc := apiErr.StatusCode
	msg := apiErr.Message
	code := apiErr.Code
	// Auth
	if sc == http.StatusUnauthorized || sc == http.StatusForbidden {
		return &AuthError{APIError: apiErr}
	}
	// Rate limiting
	if sc == http.StatusTooManyRequests {
		return &RateLimitError{APIError: apiErr, RetryAfter: retryAfterHint(msg)}
	}
	// Not found -> model not found if message/code suggests it
	if sc == http.StatusNotFound {
		if code == "model_not_found" || containsAllFold(msg, "model", "not", "found") {
			return &ModelNotFoundError{APIError: apiErr}
		}
		return apiErr
	}
	// Bad request
	if sc == http.StatusBadRequest {
		if code == "model_not_found" || containsAllFold(msg, "model", "not", "found") {
			return &ModelNotFoundError{APIError: apiErr}
		}
		return &BadRequestError{APIError: apiErr}
	}
	// Quota/billing signals (heuristic)
	if code == "quota_exceeded" || containsAnyFold(msg, "quota", "billing", "limit exceeded") {
		return &QuotaExceededError{APIError: apiErr}
	}
	// Server errors
	if sc >= 500 && sc <= 599 {
		return &ServerError{APIError: apiErr}
	}
	return apiErr
}

// retryAfterHint extracts a suggested wait from a rate-limit message such as
// "Please try again in 20s." Returns 0 when no hint is present.
func retryAfterHint(msg string) time.Duration {
	lower := strings.ToLower(msg)
	for _, marker := range []string{"try again in ", "retry after "} {
		i := strings.Index(lower, marker)
		if i < 0 {
			continue
		}
		rest := lower[i+len(marker):]
		if j := strings.IndexByte(rest, ' '); j > 0 {
			rest = rest[:j]
		}
		rest = strings.TrimRight(rest, ".,;:")
		if d, err := time.ParseDuration(rest); err == nil && d > 0 {
			return d
		}
		if secs, err := strconv.Atoi(rest); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

func containsAllFold(s string, subs ...string) bool {
	for _, sub := range subs {
		if !containsFold(s, sub) {
			return false
		}
	}
	return true
}

func containsAnyFold(s string, subs ...string) bool {
	for _, sub := range subs {
		if containsFold(s, sub) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	if s == "" || sub == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	// jitter factor in [0.8, 1.2)
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
