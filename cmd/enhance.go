package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/datascopehq/datascope-cli/internal/ai"
	"github.com/datascopehq/datascope-cli/internal/analysis"
	cfgpkg "github.com/datascopehq/datascope-cli/internal/config"
	"github.com/datascopehq/datascope-cli/internal/dataset"
	"github.com/datascopehq/datascope-cli/internal/parser"
	"github.com/datascopehq/datascope-cli/internal/retrieval"
	"github.com/datascopehq/datascope-cli/internal/utils"
)

var (
	enhType     string
	enhProvider string
	enhModel    string
	enhContext  []string
	enhStream   bool
	enhEstimate bool
	enhOutput   string
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance <report.json|dataset>",
	Short: "Enhance an analysis report with an AI provider",
	Long: `Enhance sends an analysis report to the configured AI provider and returns
generated prose: a comprehensive write-up, key insights, recommendations or
a statistical interpretation. The argument is either a JSON report from
'analyze --json' or a dataset file, which is analyzed first. Context files
(--context) are parsed, embedded via the local Ollama runtime when it is
reachable, and the best-matching chunks are spliced into the prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		kind := strings.ToLower(strings.TrimSpace(enhType))
		if !lo.Contains(ai.EnhancementTypes(), kind) {
			return fmt.Errorf("unknown enhancement type %q (use %s)", enhType, strings.Join(ai.EnhancementTypes(), "|"))
		}

		in, err := loadEnhanceInput(args[0])
		if err != nil {
			return err
		}
		contextText, err := assembleContext(cmd.Context(), c, kind, in.name)
		if err != nil {
			return err
		}

		if enhEstimate {
			return printCostEstimate(c, kind, in, contextText)
		}

		enh, err := buildEnhancer(enhProvider, enhModel)
		if err != nil {
			return err
		}
		fmt.Printf("⚙ Enhancing with %s model=%s ...\n", enh.Provider(), enh.Model())

		var res *ai.Enhancement
		if enhStream {
			res, err = enh.EnhanceStream(cmd.Context(), kind, in.dataSummary, in.resultsSummary, contextText, func(delta string) {
				fmt.Print(delta)
			})
			if err != nil {
				return err
			}
			fmt.Println()
		} else {
			res, err = enh.Enhance(cmd.Context(), kind, in.dataSummary, in.resultsSummary, contextText)
			if err != nil {
				return err
			}
		}

		if enhOutput != "" {
			if err := writeEnhanced(in, kind, res); err != nil {
				return err
			}
			fmt.Printf("✓ Enhancement written: %s\n", enhOutput)
			return nil
		}
		if !enhStream {
			fmt.Println(res.Content)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enhanceCmd)
	enhanceCmd.Flags().StringVar(&enhType, "type", ai.EnhanceComprehensive, "enhancement type: "+strings.Join(ai.EnhancementTypes(), "|"))
	enhanceCmd.Flags().StringVar(&enhProvider, "provider", "", "AI provider (default from config)")
	enhanceCmd.Flags().StringVar(&enhModel, "model", "", "model name (default from config, else the provider's balanced pick)")
	enhanceCmd.Flags().StringSliceVar(&enhContext, "context", nil, "context files to splice into the prompt (repeatable)")
	enhanceCmd.Flags().BoolVar(&enhStream, "stream", false, "stream the response to stdout as it is generated")
	enhanceCmd.Flags().BoolVar(&enhEstimate, "estimate-cost", false, "print a cost estimate instead of calling the provider")
	enhanceCmd.Flags().StringVarP(&enhOutput, "output", "o", "", "write the result to a file instead of stdout")
}

// enhanceInput is the prompt material derived from the command argument.
type enhanceInput struct {
	name           string
	dataSummary    string
	resultsSummary string
	// reportDoc is non-nil when the input was a JSON report; the enhancement
	// is attached to it on -o.
	reportDoc map[string]any
}

// loadEnhanceInput accepts either a JSON report document or a raw dataset.
// A JSON object carrying a "cols" key is treated as a report; anything else
// is loaded as a dataset and analyzed with default options.
func loadEnhanceInput(path string) (*enhanceInput, error) {
	base := filepath.Base(path)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		parsed := gjson.ParseBytes(raw)
		if parsed.IsObject() && parsed.Get("cols").Exists() {
			var doc map[string]any
			if err := sonic.Unmarshal(raw, &doc); err != nil {
				return nil, fmt.Errorf("parse report: %w", err)
			}
			name := base
			if n := parsed.Get("name").String(); n != "" {
				name = n
			}
			return &enhanceInput{
				name:           name,
				resultsSummary: ai.ResultsSummary(doc),
				reportDoc:      doc,
			}, nil
		}
	}

	t, err := dataset.Load(path, limitedLoadOptions())
	if err != nil {
		return nil, err
	}
	rep := analysis.Analyze(t, analysis.DefaultOptions())
	doc := map[string]any{}
	if raw, err := sonic.Marshal(rep); err == nil {
		_ = sonic.Unmarshal(raw, &doc)
	}
	return &enhanceInput{
		name:           t.Name,
		dataSummary:    ai.DataSummary(t),
		resultsSummary: ai.ResultsSummary(doc),
	}, nil
}

// assembleContext parses the --context files and retrieves the chunks most
// relevant to the enhancement. Without a reachable embeddings runtime the
// retrieval layer falls back to attachment heads.
func assembleContext(ctx context.Context, c *cfgpkg.Global, kind, name string) (string, error) {
	if len(enhContext) == 0 {
		return "", nil
	}
	var docs []retrieval.Document
	scanned := 0
	for _, f := range enhContext {
		text, err := parser.ParseFile(f)
		if err != nil {
			return "", fmt.Errorf("read context %s: %w", f, err)
		}
		scanned += parser.EstimateTokens(text)
		docs = append(docs, retrieval.Document{Name: filepath.Base(f), Text: text})
	}
	emb := ollamaEmbedder(c)
	query := fmt.Sprintf("%s analysis of %s", kind, name)
	text, retrieved := retrieval.BuildContext(ctx, emb, query, docs, retrieval.Options{TopK: c.RetrievalTopK})
	if retrieved {
		fmt.Printf("✓ Context: retrieved top chunks from %d file(s) (~%d tokens scanned)\n", len(docs), scanned)
	} else {
		fmt.Printf("⚠ Context: embeddings unavailable, using file heads from %d file(s) (~%d tokens scanned)\n", len(docs), scanned)
	}
	return text, nil
}

// ollamaEmbedder adapts the local embeddings endpoint to the retrieval layer.
func ollamaEmbedder(c *cfgpkg.Global) retrieval.Embedder {
	timeout := time.Duration(c.OllamaTimeoutSec) * time.Second
	client := ai.NewOllamaEmbClient(c.OllamaHost, timeout)
	model := c.EmbeddingModel
	return retrieval.EmbedderFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		return client.Embed(ctx, model, texts)
	})
}

// printCostEstimate prices the call without making it, so no key is needed.
func printCostEstimate(c *cfgpkg.Global, kind string, in *enhanceInput, contextText string) error {
	provider := enhProvider
	if provider == "" {
		provider = c.Provider
	}
	model := enhModel
	if model == "" {
		model = c.Model
	}
	if model == "" {
		if name, ok := ai.RecommendModel(provider, "balanced"); ok {
			model = name
		}
	}
	if model == "" {
		return fmt.Errorf("no model to estimate for; pass --model or set ai_model")
	}
	parts := utils.TokenBreakdown(map[string]string{
		"data":    in.dataSummary,
		"results": in.resultsSummary,
		"context": contextText,
	})
	prompt := parts["data"] + parts["results"] + parts["context"]
	completion := c.MaxTokens
	cost, ok := ai.EstimateCostUSD(model, prompt, completion)
	if !ok {
		fmt.Printf("No pricing known for model %q (prompt ~%d tokens, completion up to %d)\n", model, prompt, completion)
		return nil
	}
	fmt.Printf("Estimated cost for %s (%s): $%.4f (~%d prompt + up to %d completion tokens)\n",
		model, kind, cost, prompt, completion)
	fmt.Printf("  prompt: %d data + %d results + %d context\n", parts["data"], parts["results"], parts["context"])
	return nil
}

// writeEnhanced writes the -o artifact: report inputs get the enhancement
// attached and saved as JSON, dataset inputs get the generated markdown.
func writeEnhanced(in *enhanceInput, kind string, res *ai.Enhancement) error {
	if in.reportDoc != nil {
		ai.AttachEnhancement(in.reportDoc, kind, res)
		body, err := utils.PrettyJSON(in.reportDoc)
		if err != nil {
			return err
		}
		return utils.SafeWriteFile(enhOutput, body)
	}
	return utils.SafeWriteFile(enhOutput, []byte(res.Content))
}

// buildEnhancer wires an Enhancer from config plus optional overrides. The
// API key comes from config or the provider's environment variable; ollama
// needs neither.
func buildEnhancer(provider, model string) (*ai.Enhancer, error) {
	c, err := ensureConfig()
	if err != nil {
		return nil, err
	}
	if provider == "" {
		provider = c.Provider
	}
	if provider == "" {
		provider = ai.ProviderOpenAI
	}
	if model == "" {
		model = c.Model
	}
	opts := ai.EnhancerOptions{
		Provider:    provider,
		Model:       model,
		APIKey:      c.APIKey,
		BaseURL:     c.APIBase,
		OllamaHost:  c.OllamaHost,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
	}
	if opts.APIKey == "" {
		if key, ok := ai.EnvKeyFor(provider); ok {
			opts.APIKey = os.Getenv(key)
			if opts.APIKey == "" {
				return nil, fmt.Errorf("%s is not set", key)
			}
		}
	}
	return ai.NewEnhancer(opts)
}
