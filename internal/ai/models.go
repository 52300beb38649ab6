package ai

import (
	"encoding/json"
	"os"
)

// Model metadata and simple pricing helpers for UX warnings.
// Prices are illustrative and should be verified against provider docs.

type ModelInfo struct {
	Name          string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

var models = map[string]ModelInfo{
	// OpenAI
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
	// DashScope (qwen)
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
	// BigModel (chatglm)
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
	// Common local (Ollama) tags
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
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(promptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}

// ---- Sync/override helpers ----

// LoadCatalogFromJSON loads a JSON object map[string]ModelInfo from a file path.
// Example JSON entry:
// { "gpt-4o-mini": {"Name":"gpt-4o-mini","ContextTokens":128000,"InputPerK":0.00015,"OutputPerK":0.0006} }
func LoadCatalogFromJSON(path string) (map[string]ModelInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	var m map[string]ModelInfo
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// OverrideCatalog replaces the in-memory catalog entirely.
func OverrideCatalog(m map[string]ModelInfo) {
	if m == nil {
		return
	}
	models = m
}

// MergeCatalog merges/overrides entries in the in-memory catalog.
func MergeCatalog(m map[string]ModelInfo) {
	if m == nil {
		return
	}
	for k, v := range m {
		models[k] = v
	}
}

// Catalog returns a shallow copy of the current model catalog.
func Catalog() map[string]ModelInfo {
	out := make(map[string]ModelInfo, len(models))
	for k, v := range models {
		out[k] = v
	}
	return out
}
