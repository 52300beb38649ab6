package ai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/valyala/fasttemplate"

	"github.com/datascopehq/datascope-cli/internal/dataset"
	"github.com/datascopehq/datascope-cli/internal/utils"
)

// Enhancement types. Each type carries its own prompt body.
const (
	EnhanceComprehensive   = "comprehensive"
	EnhanceInsights        = "insights"
	EnhanceRecommendations = "recommendations"
	EnhanceInterpretation  = "interpretation"
)

// EnhancementTypes lists the supported enhancement types in display order.
func EnhancementTypes() []string {
	return []string{EnhanceComprehensive, EnhanceInsights, EnhanceRecommendations, EnhanceInterpretation}
}

// Enhancement is one provider round-trip result, ready to be attached to a
// report document.
type Enhancement struct {
	Timestamp string `json:"timestamp"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Content   string `json:"content"`
}

const systemPrompt = "You are a senior data analyst. You write precise, well-structured analysis prose grounded strictly in the numbers you are given. You never invent data points."

const promptScaffold = `{{task}}

DATA SUMMARY
{{data}}

ANALYSIS RESULTS
{{results}}
{{context}}
Respond in clear markdown without preamble.`

var enhanceTasks = map[string]string{
	EnhanceComprehensive: "Write a comprehensive analysis report covering data quality, " +
		"the distribution of each key variable, notable relationships, and limitations of the data.",
	EnhanceInsights: "Extract the most important insights from the analysis below. " +
		"List each insight with the specific numbers that support it, strongest first.",
	EnhanceRecommendations: "Propose concrete follow-up actions based on the analysis below. " +
		"For each recommendation state the supporting evidence and the expected effect.",
	EnhanceInterpretation: "Interpret the statistical results below for a non-technical reader. " +
		"Explain what each statistic, p-value and effect size means in plain language.",
}

// BuildPrompt assembles the user prompt for an enhancement type. contextText
// is optional retrieved context spliced in under a CONTEXT heading.
func BuildPrompt(kind, dataSummary, resultsSummary, contextText string) (string, error) {
	task, ok := enhanceTasks[kind]
	if !ok {
		return "", fmt.Errorf("unknown enhancement type %q (supported: %s)", kind, strings.Join(EnhancementTypes(), ", "))
	}
	ctxBlock := ""
	if strings.TrimSpace(contextText) != "" {
		ctxBlock = "\nCONTEXT\n" + strings.TrimSpace(contextText) + "\n"
	}
	t := fasttemplate.New(promptScaffold, "{{", "}}")
	return t.ExecuteString(map[string]any{
		"task":    task,
		"data":    strings.TrimSpace(dataSummary),
		"results": strings.TrimSpace(resultsSummary),
		"context": ctxBlock,
	}), nil
}

// Enhancer drives enhancement round trips against a configured runtime.
type Enhancer struct {
	rt          Runtime
	provider    string
	model       string
	maxTokens   int
	temperature float64
}

// EnhancerOptions configures NewEnhancer. Zero values fall back to the
// runtime defaults.
type EnhancerOptions struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	OllamaHost  string
	MaxTokens   int
	Temperature float64
	HTTPTimeout time.Duration
	RetryMax    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// NewEnhancer builds an Enhancer for the configured provider and model.
func NewEnhancer(opts EnhancerOptions) (*Enhancer, error) {
	provider := opts.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}
	model := opts.Model
	if model == "" {
		if name, ok := RecommendModel(provider, "balanced"); ok {
			model = name
		}
	}
	if model == "" {
		return nil, fmt.Errorf("no model configured for provider %q", provider)
	}
	rt, ok := GetRuntime(provider, RuntimeConfig{
		HTTPTimeout: opts.HTTPTimeout,
		RetryMax:    opts.RetryMax,
		BaseDelay:   opts.BaseDelay,
		MaxDelay:    opts.MaxDelay,
		APIKey:      opts.APIKey,
		BaseURL:     opts.BaseURL,
		Host:        opts.OllamaHost,
	})
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (supported: %s)", provider, strings.Join(Providers(), ", "))
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}
	return &Enhancer{rt: rt, provider: provider, model: model, maxTokens: maxTokens, temperature: temperature}, nil
}

// Provider returns the configured provider name.
func (e *Enhancer) Provider() string { return e.provider }

// Model returns the configured model name.
func (e *Enhancer) Model() string { return e.model }

// budgetPrompt trims a prompt so that prompt + completion fit the model's
// context window, using the coarse 4-chars-per-token estimate.
func (e *Enhancer) budgetPrompt(prompt string) string {
	mi, ok := LookupModel(e.model)
	if !ok || mi.ContextTokens <= 0 {
		return prompt
	}
	budget := mi.ContextTokens - e.maxTokens - 256
	if budget <= 0 {
		return prompt
	}
	return utils.TruncateToTokenLimit(prompt, budget)
}

func (e *Enhancer) request(kind, dataSummary, resultsSummary, contextText string) (GenerateRequest, error) {
	prompt, err := BuildPrompt(kind, dataSummary, resultsSummary, contextText)
	if err != nil {
		return GenerateRequest{}, err
	}
	return GenerateRequest{
		Model: e.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: e.budgetPrompt(prompt)},
		},
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	}, nil
}

// Enhance runs one enhancement round trip. On any provider failure the
// caller keeps its original report; the error is only reported out-of-band.
func (e *Enhancer) Enhance(ctx context.Context, kind, dataSummary, resultsSummary, contextText string) (*Enhancement, error) {
	req, err := e.request(kind, dataSummary, resultsSummary, contextText)
	if err != nil {
		return nil, err
	}
	resp, err := e.rt.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("enhance (%s/%s): %w", e.provider, e.model, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, errors.New("provider returned an empty response")
	}
	return &Enhancement{
		Timestamp: time.Now().Format(time.RFC3339),
		Provider:  e.provider,
		Model:     e.model,
		Content:   strings.TrimSpace(resp.Choices[0].Message.Content),
	}, nil
}

// EnhanceStream is Enhance with incremental delta output. Falls back to the
// non-streaming path when the runtime cannot stream.
func (e *Enhancer) EnhanceStream(ctx context.Context, kind, dataSummary, resultsSummary, contextText string, onDelta func(string)) (*Enhancement, error) {
	sr, ok := e.rt.(StreamRuntime)
	if !ok {
		return e.Enhance(ctx, kind, dataSummary, resultsSummary, contextText)
	}
	req, err := e.request(kind, dataSummary, resultsSummary, contextText)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	err = sr.GenerateStream(ctx, req, func(d string) {
		b.WriteString(d)
		onDelta(d)
	})
	if err != nil {
		return nil, fmt.Errorf("enhance (%s/%s): %w", e.provider, e.model, err)
	}
	content := strings.TrimSpace(b.String())
	if content == "" {
		return nil, errors.New("provider returned an empty response")
	}
	return &Enhancement{
		Timestamp: time.Now().Format(time.RFC3339),
		Provider:  e.provider,
		Model:     e.model,
		Content:   content,
	}, nil
}

// AttachEnhancement appends an ai_<type> section to a report document and
// flips the enhancement flag. The document is modified in place.
func AttachEnhancement(report map[string]any, kind string, enh *Enhancement) {
	report["ai_"+kind] = map[string]any{
		"timestamp": enh.Timestamp,
		"provider":  enh.Provider,
		"model":     enh.Model,
		"content":   enh.Content,
	}
	report["has_ai_enhancement"] = true
}

// ---- Prompt summary builders ----

const (
	maxSummaryColumns = 10
	maxTopLevelChars  = 200
	maxNestedChars    = 100
)

// DataSummary renders the compact dataset description fed to the model:
// shape, column kinds, missing counts, numeric ranges and categorical tops.
// At most maxSummaryColumns columns are described.
func DataSummary(t *dataset.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dataset: %s\n", t.Name)
	fmt.Fprintf(&b, "Shape: %d rows x %d columns\n", t.NumRows(), t.NumCols())
	cols := t.Columns
	extra := 0
	if len(cols) > maxSummaryColumns {
		extra = len(cols) - maxSummaryColumns
		cols = cols[:maxSummaryColumns]
	}
	for j, c := range cols {
		missing := t.MissingCount(j)
		fmt.Fprintf(&b, "- %s (%s", c.Name, c.Kind)
		if c.Unit != "" {
			fmt.Fprintf(&b, ", %s", c.Unit)
		}
		b.WriteString(")")
		if missing > 0 {
			fmt.Fprintf(&b, ", %d missing", missing)
		}
		switch c.Kind {
		case dataset.KindNumeric:
			vals := t.NumericColumn(j)
			if len(vals) > 0 {
				mn, mx, mean := rangeOf(vals)
				fmt.Fprintf(&b, ": min=%s max=%s mean=%s", trimNum(mn), trimNum(mx), trimNum(mean))
			}
		case dataset.KindCategorical:
			tops := topCounts(t, j, 3)
			if len(tops) > 0 {
				fmt.Fprintf(&b, ": top %s", strings.Join(tops, ", "))
			}
		}
		b.WriteString("\n")
	}
	if extra > 0 {
		fmt.Fprintf(&b, "... and %d more columns\n", extra)
	}
	return b.String()
}

func rangeOf(vals []float64) (mn, mx, mean float64) {
	mn, mx = vals[0], vals[0]
	sum := 0.0
	for _, v := range vals {
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
		sum += v
	}
	return mn, mx, sum / float64(len(vals))
}

func trimNum(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

func topCounts(t *dataset.Table, col, limit int) []string {
	counts := map[string]int{}
	for r := 0; r < t.NumRows(); r++ {
		v := strings.TrimSpace(t.Cell(r, col))
		if v == "" || len(v) > 64 {
			continue
		}
		counts[v]++
	}
	keys := lo.Keys(counts)
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] == counts[keys[j]] {
			return keys[i] < keys[j]
		}
		return counts[keys[i]] > counts[keys[j]]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprintf("%s (%d)", k, counts[k])
	}
	return out
}

// statKeys are surfaced first in results summaries so test statistics,
// p-values and effect sizes survive truncation.
var statKeys = []string{
	"statistic", "t_statistic", "f_statistic", "chi2",
	"p_value", "pvalue", "effect_size", "cohens_d", "r", "r_squared", "alpha",
}

// ResultsSummary flattens a generic results document for the prompt. Top
// level strings are truncated to 200 chars, nested values to 100.
func ResultsSummary(doc map[string]any) string {
	if len(doc) == 0 {
		return "(no results)"
	}
	var b strings.Builder
	seen := map[string]bool{}
	// Headline statistics first.
	for _, k := range statKeys {
		if v, ok := doc[k]; ok {
			fmt.Fprintf(&b, "- %s: %s\n", k, truncateStr(flatValue(v), maxNestedChars))
			seen[k] = true
		}
	}
	keys := lo.Keys(doc)
	sort.Strings(keys)
	for _, k := range keys {
		if seen[k] {
			continue
		}
		switch v := doc[k].(type) {
		case string:
			fmt.Fprintf(&b, "- %s: %s\n", k, truncateStr(v, maxTopLevelChars))
		case map[string]any:
			fmt.Fprintf(&b, "- %s:\n", k)
			nested := lo.Keys(v)
			sort.Strings(nested)
			for _, kk := range nested {
				fmt.Fprintf(&b, "    %s: %s\n", kk, truncateStr(flatValue(v[kk]), maxNestedChars))
			}
		case []any:
			fmt.Fprintf(&b, "- %s: %s\n", k, truncateStr(flatValue(v), maxTopLevelChars))
		default:
			fmt.Fprintf(&b, "- %s: %v\n", k, v)
		}
	}
	return b.String()
}

func flatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return trimNum(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, flatValue(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := lo.Keys(val)
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, flatValue(val[k])))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(v)
	}
}

func truncateStr(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
