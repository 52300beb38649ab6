package ai

import "context"

// Runtime is a minimal interface implemented by AI backends: the
// OpenAI-compatible cloud providers and local runtimes (e.g., Ollama).
// It aligns to the shared request/response types in this package.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderOpenAI  = "openai"
	ProviderQwen    = "qwen"
	ProviderChatGLM = "chatglm"
	ProviderOllama  = "ollama"
)

// Providers lists the supported provider names in display order.
func Providers() []string {
	return []string{ProviderOpenAI, ProviderQwen, ProviderChatGLM, ProviderOllama}
}

// BaseURLFor returns the chat-completions base URL for an OpenAI-compatible
// provider. Empty means the client library default (api.openai.com).
func BaseURLFor(provider string) string {
	switch provider {
	case ProviderQwen:
		return "https://dashscope.aliyuncs.com/compatible-mode/v1"
	case ProviderChatGLM:
		return "https://open.bigmodel.cn/api/paas/v4"
	default:
		return ""
	}
}

// EnvKeyFor returns the environment variable that holds the provider's API
// key. ok is false for keyless providers (Ollama).
func EnvKeyFor(provider string) (string, bool) {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY", true
	case ProviderQwen:
		return "QWEN_API_KEY", true
	case ProviderChatGLM:
		return "CHATGLM_API_KEY", true
	}
	return "", false
}

// StreamRuntime is an optional extension that supports streaming output.
// Implementors should invoke onDelta with each partial content chunk.
type StreamRuntime interface {
	GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error
}

// Embedder is implemented by runtimes that can produce embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, model string, inputs []string) ([][]float32, error)
}
