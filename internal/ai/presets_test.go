package ai

import "testing"

func TestPresetCatalogProviders(t *testing.T) {
	m, ok := PresetCatalog(ProviderOpenAI)
	if !ok || len(m) == 0 {
		t.Fatalf("expected openai preset to be available")
	}
	if _, exists := m["gpt-4o-mini"]; !exists {
		t.Fatalf("expected gpt-4o-mini in openai preset")
	}
	m, ok = PresetCatalog(ProviderQwen)
	if !ok {
		t.Fatalf("expected qwen preset to be available")
	}
	for _, name := range []string{"qwen-turbo", "qwen-plus", "qwen-max"} {
		if _, exists := m[name]; !exists {
			t.Fatalf("expected %s in qwen preset", name)
		}
	}
	m, ok = PresetCatalog(ProviderChatGLM)
	if !ok {
		t.Fatalf("expected chatglm preset to be available")
	}
	if _, exists := m["glm-4-flash"]; !exists {
		t.Fatalf("expected glm-4-flash in chatglm preset")
	}
	if _, ok := PresetCatalog("nonesuch"); ok {
		t.Fatalf("expected unknown provider to be false")
	}
}

func TestRecommendModel(t *testing.T) {
	if name, ok := RecommendModel(ProviderOpenAI, "cheap"); !ok || name != "gpt-4o-mini" {
		t.Fatalf("unexpected recommendation for openai/cheap: %s", name)
	}
	if name, ok := RecommendModel(ProviderQwen, "balanced"); !ok || name != "qwen-plus" {
		t.Fatalf("unexpected recommendation for qwen/balanced: %s", name)
	}
	if name, ok := RecommendModel(ProviderChatGLM, "cheap"); !ok || name != "glm-4-flash" {
		t.Fatalf("unexpected recommendation for chatglm/cheap: %s", name)
	}
	if name, ok := RecommendModel(ProviderOllama, "balanced"); !ok || name != "qwen2.5" {
		t.Fatalf("unexpected recommendation for ollama/balanced: %s", name)
	}
	// Empty provider defaults to openai.
	if name, ok := RecommendModel("", "balanced"); !ok || name != "gpt-4o" {
		t.Fatalf("unexpected recommendation for default/balanced: %s", name)
	}
	if _, ok := RecommendModel("", "unknown"); ok {
		t.Fatalf("expected unknown tier to be false")
	}
}

func TestEstimateCostUSD(t *testing.T) {
	cost, ok := EstimateCostUSD("gpt-4o", 1000, 1000)
	if !ok {
		t.Fatalf("expected gpt-4o to be in the catalog")
	}
	if cost <= 0 {
		t.Fatalf("expected positive cost, got %f", cost)
	}
	if _, ok := EstimateCostUSD("not-a-model", 1000, 1000); ok {
		t.Fatalf("expected unknown model to be false")
	}
	// Local models are free.
	cost, ok = EstimateCostUSD("llama3.1", 1000, 1000)
	if !ok || cost != 0 {
		t.Fatalf("expected zero cost for llama3.1, got %f ok=%v", cost, ok)
	}
}
