package ai

// PresetCatalog returns a built-in curated catalog for a known provider.
// The catalog can be merged or used to replace the in-memory catalog.
func PresetCatalog(provider string) (map[string]ModelInfo, bool) {
	switch provider {
	case ProviderOpenAI:
		return map[string]ModelInfo{
			"gpt-4o": {
				Name:          "gpt-4o",
				ContextTokens: 128000,
				InputPerK:     0.005,
				OutputPerK:    0.015,
			},
			"gpt-4o-mini": {
				Name:          "gpt-4o-mini",
				ContextTokens: 128000,
				InputPerK:     0.00015,
				OutputPerK:    0.0006,
			},
		}, true
	case ProviderQwen:
		return map[string]ModelInfo{
			"qwen-turbo": {
				Name:          "qwen-turbo",
				ContextTokens: 131072,
				InputPerK:     0.00005,
				OutputPerK:    0.0002,
			},
			"qwen-plus": {
				Name:          "qwen-plus",
				ContextTokens: 131072,
				InputPerK:     0.0004,
				OutputPerK:    0.0012,
			},
			"qwen-max": {
				Name:          "qwen-max",
				ContextTokens: 32768,
				InputPerK:     0.0024,
				OutputPerK:    0.0096,
			},
		}, true
	case ProviderChatGLM:
		return map[string]ModelInfo{
			"glm-4": {
				Name:          "glm-4",
				ContextTokens: 128000,
				InputPerK:     0.0014,
				OutputPerK:    0.0014,
			},
			"glm-4-flash": {
				Name:          "glm-4-flash",
				ContextTokens: 128000,
				InputPerK:     0.0,
				OutputPerK:    0.0,
			},
		}, true
	case ProviderOllama, "local":
		// Local-friendly tags that commonly exist in Ollama registries
		return map[string]ModelInfo{
			"llama3.1": {
				Name:          "llama3.1",
				ContextTokens: 131072,
				InputPerK:     0.0,
				OutputPerK:    0.0,
			},
			"qwen2.5": {
				Name:          "qwen2.5",
				ContextTokens: 32768,
				InputPerK:     0.0,
				OutputPerK:    0.0,
			},
		}, true
	default:
		return nil, false
	}
}

// RecommendModel returns a recommended model name for a given tier and
// provider. If provider is empty, defaults to "openai".
// Tiers: cheap|balanced|high-context.
func RecommendModel(provider, tier string) (string, bool) {
	if provider == "" {
		provider = ProviderOpenAI
	}
	switch tier {
	case "cheap":
		switch provider {
		case ProviderOpenAI:
			return "gpt-4o-mini", true
		case ProviderQwen:
			return "qwen-turbo", true
		case ProviderChatGLM:
			return "glm-4-flash", true
		case ProviderOllama, "local":
			return "llama3.1", true
		}
	case "balanced":
		switch provider {
		case ProviderOpenAI:
			return "gpt-4o", true
		case ProviderQwen:
			return "qwen-plus", true
		case ProviderChatGLM:
			return "glm-4", true
		case ProviderOllama, "local":
			return "qwen2.5", true
		}
	case "high-context":
		switch provider {
		case ProviderOpenAI:
			return "gpt-4o", true // 128k context
		case ProviderQwen:
			return "qwen-plus", true // 128k context
		case ProviderChatGLM:
			return "glm-4", true
		case ProviderOllama, "local":
			return "llama3.1", true // 128k context
		}
	}
	return "", false
}
