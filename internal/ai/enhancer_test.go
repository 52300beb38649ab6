package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/datascopehq/datascope-cli/internal/dataset"
)

type fakeRuntime struct {
	content string
	err     error
	lastReq GenerateRequest
}

func (f *fakeRuntime) Generate(_ context.Context, req GenerateRequest) (*GenerateResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &GenerateResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: f.content}}}}, nil
}

func TestBuildPromptKinds(t *testing.T) {
	for _, kind := range EnhancementTypes() {
		p, err := BuildPrompt(kind, "data here", "results here", "")
		if err != nil {
			t.Fatalf("BuildPrompt(%s) error: %v", kind, err)
		}
		if !strings.Contains(p, "data here") || !strings.Contains(p, "results here") {
			t.Fatalf("prompt for %s missing summaries: %q", kind, p)
		}
		if strings.Contains(p, "CONTEXT") {
			t.Fatalf("prompt for %s should not have a context block: %q", kind, p)
		}
	}
	if _, err := BuildPrompt("extrapolate", "d", "r", ""); err == nil {
		t.Fatalf("expected error for unknown enhancement type")
	}
}

func TestBuildPromptContextBlock(t *testing.T) {
	p, err := BuildPrompt(EnhanceInsights, "d", "r", "retrieved chunk one")
	if err != nil {
		t.Fatalf("BuildPrompt error: %v", err)
	}
	if !strings.Contains(p, "CONTEXT\nretrieved chunk one") {
		t.Fatalf("expected context under CONTEXT heading, got: %q", p)
	}
}

func TestEnhanceRoundTrip(t *testing.T) {
	rt := &fakeRuntime{content: "  the enhanced report  "}
	e := &Enhancer{rt: rt, provider: ProviderOpenAI, model: "gpt-4o-mini", maxTokens: 200, temperature: 0.3}
	enh, err := e.Enhance(context.Background(), EnhanceInsights, "data", "results", "")
	if err != nil {
		t.Fatalf("Enhance error: %v", err)
	}
	if enh.Content != "the enhanced report" {
		t.Fatalf("expected trimmed content, got %q", enh.Content)
	}
	if enh.Provider != ProviderOpenAI || enh.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected metadata: %+v", enh)
	}
	if enh.Timestamp == "" {
		t.Fatalf("expected RFC3339 timestamp")
	}
	if len(rt.lastReq.Messages) != 2 || rt.lastReq.Messages[0].Role != "system" {
		t.Fatalf("expected system+user messages, got %+v", rt.lastReq.Messages)
	}
}

func TestEnhanceProviderFailure(t *testing.T) {
	rt := &fakeRuntime{err: errors.New("boom")}
	e := &Enhancer{rt: rt, provider: ProviderOpenAI, model: "gpt-4o-mini", maxTokens: 200, temperature: 0.3}
	_, err := e.Enhance(context.Background(), EnhanceInsights, "data", "results", "")
	if err == nil {
		t.Fatalf("expected provider failure to surface")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected wrapped cause, got: %v", err)
	}
}

func TestAttachEnhancement(t *testing.T) {
	report := map[string]any{"name": "demo"}
	AttachEnhancement(report, EnhanceInsights, &Enhancement{
		Timestamp: "2024-01-01T00:00:00Z", Provider: "openai", Model: "gpt-4o-mini", Content: "insight",
	})
	sec, ok := report["ai_insights"].(map[string]any)
	if !ok {
		t.Fatalf("expected ai_insights section, got %+v", report)
	}
	if sec["content"] != "insight" || sec["provider"] != "openai" {
		t.Fatalf("unexpected section: %+v", sec)
	}
	if flag, _ := report["has_ai_enhancement"].(bool); !flag {
		t.Fatalf("expected has_ai_enhancement to be set")
	}
}

func TestDataSummary(t *testing.T) {
	tbl := dataset.Sample()
	s := DataSummary(tbl)
	if !strings.Contains(s, "5 rows x 4 columns") {
		t.Fatalf("expected shape line, got: %q", s)
	}
	if !strings.Contains(s, "age (numeric)") {
		t.Fatalf("expected numeric column line, got: %q", s)
	}
	if !strings.Contains(s, "city (categorical)") {
		t.Fatalf("expected categorical column line, got: %q", s)
	}
	if !strings.Contains(s, "min=25 max=45") {
		t.Fatalf("expected numeric range for age, got: %q", s)
	}
}

func TestDataSummaryColumnCap(t *testing.T) {
	headers := make([]string, 14)
	for i := range headers {
		headers[i] = strings.Repeat("c", i+1)
	}
	tbl := dataset.New("wide", headers)
	tbl.AppendRow(make([]string, 14))
	tbl.Detect(dataset.DefaultParseOptions())
	s := DataSummary(tbl)
	if !strings.Contains(s, "and 4 more columns") {
		t.Fatalf("expected column cap note, got: %q", s)
	}
}

func TestResultsSummaryTruncation(t *testing.T) {
	doc := map[string]any{
		"p_value":   0.032,
		"statistic": 4.21,
		"notes":     strings.Repeat("x", 300),
		"details":   map[string]any{"inner": strings.Repeat("y", 150)},
	}
	s := ResultsSummary(doc)
	lines := strings.Split(s, "\n")
	// Stat keys come first.
	if !strings.HasPrefix(lines[0], "- statistic:") {
		t.Fatalf("expected statistic first, got: %q", lines[0])
	}
	if !strings.Contains(s, "- p_value: 0.032") {
		t.Fatalf("expected p_value line, got: %q", s)
	}
	if !strings.Contains(s, strings.Repeat("x", 200)+"...") {
		t.Fatalf("expected 200-char truncation of top-level string")
	}
	if strings.Contains(s, strings.Repeat("x", 201)) {
		t.Fatalf("top-level string not truncated")
	}
	if !strings.Contains(s, strings.Repeat("y", 100)+"...") {
		t.Fatalf("expected 100-char truncation of nested string")
	}
}

func TestResultsSummaryEmpty(t *testing.T) {
	if s := ResultsSummary(nil); s != "(no results)" {
		t.Fatalf("unexpected empty summary: %q", s)
	}
}
