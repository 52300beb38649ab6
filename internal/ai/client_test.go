package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func chatOKBody(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl_test",
		"object": "chat.completion",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]any{"role": "assistant", "content": content}},
		},
		"usage": map[string]any{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
	}
}

func testServerSequence(t *testing.T, statuses []int, errMsgs []string, bodyOK map[string]any) *ipv4Server {
	t.Helper()
	var idx int32
	return newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		i := int(atomic.AddInt32(&idx, 1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		st := statuses[i]
		w.Header().Set("Content-Type", "application/json")
		if st >= 200 && st < 300 {
			w.WriteHeader(st)
			_ = json.NewEncoder(w).Encode(bodyOK)
			return
		}
		msg := "rate limited"
		if errMsgs != nil && i < len(errMsgs) && errMsgs[i] != "" {
			msg = errMsgs[i]
		}
		w.WriteHeader(st)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": msg, "type": "test"}})
	}))
}

func TestGenerateRetriesOn429(t *testing.T) {
	srv := testServerSequence(t, []int{429, 200}, nil, chatOKBody("ok"))
	defer srv.Close()

	c := NewClientWithBaseURL(ProviderOpenAI, "test", 2*time.Second, 3, 10*time.Millisecond, 100*time.Millisecond, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := c.Generate(ctx, GenerateRequest{Model: "test-model", Messages: []Message{{Role: "user", Content: "hi"}}, MaxTokens: 1})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Usage.TotalTokens != 5 {
		t.Fatalf("expected usage to be mapped, got %+v", resp.Usage)
	}
}

func TestRetryAfterHintHonored(t *testing.T) {
	// Provider suggests a 1-second wait in the error message, then succeeds.
	srv := testServerSequence(t, []int{429, 200}, []string{"rate limited, try again in 1s"}, chatOKBody("ok"))
	defer srv.Close()

	c := NewClientWithBaseURL(ProviderOpenAI, "test", 5*time.Second, 3, 0, 0, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	_, err := c.Generate(ctx, GenerateRequest{Model: "test-model", Messages: []Message{{Role: "user", Content: "hi"}}, MaxTokens: 1})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 900*time.Millisecond { // allow some scheduling variance
		t.Fatalf("expected at least ~1s delay due to retry hint, got %v", elapsed)
	}
}

func TestGenerateAuthError(t *testing.T) {
	srv := testServerSequence(t, []int{401}, []string{"invalid api key"}, nil)
	defer srv.Close()

	c := NewClientWithBaseURL(ProviderOpenAI, "bad-key", 2*time.Second, 1, 10*time.Millisecond, 50*time.Millisecond, srv.URL)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "test-model", Messages: []Message{{Role: "user", Content: "hi"}}})
	if err == nil {
		t.Fatalf("expected error")
	}
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
}

func TestGenerateModelNotFound(t *testing.T) {
	srv := testServerSequence(t, []int{404}, []string{"the model `nope` was not found"}, nil)
	defer srv.Close()

	c := NewClientWithBaseURL(ProviderOpenAI, "test", 2*time.Second, 1, 10*time.Millisecond, 50*time.Millisecond, srv.URL)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "nope", Messages: []Message{{Role: "user", Content: "hi"}}})
	if err == nil {
		t.Fatalf("expected error")
	}
	var mnf *ModelNotFoundError
	if !errors.As(err, &mnf) {
		t.Fatalf("expected ModelNotFoundError, got %T: %v", err, err)
	}
}

func TestGenerateUnreachable(t *testing.T) {
	// Open a listener to reserve a port, then close it so dials are refused.
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	addr := "http://" + ln.Addr().String()
	_ = ln.Close()

	c := NewClientWithBaseURL(ProviderOpenAI, "test", 500*time.Millisecond, 1, time.Millisecond, 10*time.Millisecond, addr)
	_, err = c.Generate(context.Background(), GenerateRequest{Model: "test-model", Messages: []Message{{Role: "user", Content: "hi"}}})
	if err == nil {
		t.Fatalf("expected error")
	}
	var ue *UnreachableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnreachableError, got %T: %v", err, err)
	}
}

func TestGenerateMissingKey(t *testing.T) {
	c := NewClient(ProviderQwen, "", time.Second, 1, 0, 0)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "qwen-turbo", Messages: []Message{{Role: "user", Content: "hi"}}})
	if err == nil || err.Error() != "QWEN_API_KEY is missing" {
		t.Fatalf("expected missing key error, got: %v", err)
	}
}

func TestGenerateStreamParsesDeltas(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hello \"}}]}\n\n")
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"world\"}}]}\n\n")
		fmt.Fprintf(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(ProviderOpenAI, "test", 5*time.Second, 1, 0, 0, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var out string
	err := c.GenerateStream(ctx, GenerateRequest{Model: "test", Messages: []Message{{Role: "user", Content: "hi"}}}, func(d string) { out += d })
	if err != nil {
		t.Fatalf("GenerateStream error: %v", err)
	}
	if out != "hello world" {
		t.Fatalf("unexpected stream accumulation: %q", out)
	}
}

func TestClassifyAPIError(t *testing.T) {
	cases := []struct {
		name   string
		in     *APIError
		verify func(error) bool
	}{
		{"auth", &APIError{StatusCode: 403}, func(err error) bool {
			var e *AuthError
			return errors.As(err, &e)
		}},
		{"rate limit", &APIError{StatusCode: 429, Message: "try again in 2s"}, func(err error) bool {
			var e *RateLimitError
			return errors.As(err, &e) && e.RetryAfter == 2*time.Second
		}},
		{"bad request", &APIError{StatusCode: 400, Message: "temperature out of range"}, func(err error) bool {
			var e *BadRequestError
			return errors.As(err, &e)
		}},
		{"model not found via 400", &APIError{StatusCode: 400, Message: "model glm-9 not found"}, func(err error) bool {
			var e *ModelNotFoundError
			return errors.As(err, &e)
		}},
		{"quota", &APIError{StatusCode: 402, Message: "billing hard limit reached"}, func(err error) bool {
			var e *QuotaExceededError
			return errors.As(err, &e)
		}},
		{"server", &APIError{StatusCode: 503}, func(err error) bool {
			var e *ServerError
			return errors.As(err, &e)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyAPIError(tc.in)
			if !tc.verify(err) {
				t.Fatalf("unexpected classification: %T %v", err, err)
			}
		})
	}
}

func TestRetryAfterHint(t *testing.T) {
	cases := []struct {
		msg  string
		want time.Duration
	}{
		{"Please try again in 20s.", 20 * time.Second},
		{"Rate limit reached. Please try again in 1.5s later", 1500 * time.Millisecond},
		{"retry after 3 seconds", 3 * time.Second},
		{"slow down", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := retryAfterHint(tc.msg); got != tc.want {
			t.Fatalf("retryAfterHint(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
}

func TestBaseURLFor(t *testing.T) {
	if got := BaseURLFor(ProviderQwen); got != "https://dashscope.aliyuncs.com/compatible-mode/v1" {
		t.Fatalf("qwen base URL: %s", got)
	}
	if got := BaseURLFor(ProviderChatGLM); got != "https://open.bigmodel.cn/api/paas/v4" {
		t.Fatalf("chatglm base URL: %s", got)
	}
	if got := BaseURLFor(ProviderOpenAI); got != "" {
		t.Fatalf("openai should use the client default, got %s", got)
	}
}
