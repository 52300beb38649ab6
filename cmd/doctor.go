package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/datascopehq/datascope-cli/internal/ai"
	"github.com/datascopehq/datascope-cli/internal/envcheck"
	"github.com/datascopehq/datascope-cli/internal/launcher"
)

var doctorRoot string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the runtime, tools, files, config and AI endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		root := appRoot(doctorRoot)
		checks := []envcheck.DoctorCheck{
			{Name: "Go runtime", Run: envcheck.CheckRuntime},
			{Name: "external tools", Run: envcheck.CheckTools},
			{Name: "file structure", Run: func(context.Context) envcheck.CheckOutcome {
				return envcheck.CheckFileStructure(root, []string{launcher.Manifest}, launcher.RequiredDirs)
			}},
			{Name: "configuration", Run: doctorConfig},
			{Name: "API keys", Run: func(context.Context) envcheck.CheckOutcome {
				out, _ := envcheck.CheckAPIKeys(effectiveProvider() == ai.ProviderOllama)
				return out
			}},
			{Name: "AI endpoint", Run: doctorEndpoint},
		}
		passed, total := envcheck.RunDoctor(cmd.Context(), os.Stdout, checks)
		if passed != total {
			return fmt.Errorf("%d of %d checks failed", total-passed, total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().StringVar(&doctorRoot, "root", "", "application root to inspect")
}

func effectiveProvider() string {
	if cfg != nil && cfg.Provider != "" {
		return cfg.Provider
	}
	return ai.ProviderOpenAI
}

func doctorConfig(context.Context) envcheck.CheckOutcome {
	c, err := ensureConfig()
	if err != nil {
		return envcheck.Fail(
			fmt.Sprintf("config load failed: %v", err),
			"fix or delete ~/.datascope/config.yaml",
		)
	}
	model := c.Model
	if model == "" {
		model = "(auto)"
	}
	return envcheck.Pass(fmt.Sprintf("provider %s, model %s", effectiveProvider(), model))
}

// doctorEndpoint runs one minimal chat round trip against the configured
// provider so connectivity and credentials fail here instead of mid-report.
func doctorEndpoint(ctx context.Context) envcheck.CheckOutcome {
	c, err := ensureConfig()
	if err != nil {
		return envcheck.Fail(err.Error(), "fix or delete ~/.datascope/config.yaml")
	}
	provider := effectiveProvider()
	key := c.APIKey
	if key == "" {
		if envKey, needs := ai.EnvKeyFor(provider); needs {
			key = os.Getenv(envKey)
			if key == "" {
				return envcheck.Fail(
					fmt.Sprintf("%s is not set", envKey),
					"export the key or switch ai_provider to ollama",
				)
			}
		}
	}
	model := c.Model
	if model == "" {
		if name, ok := ai.RecommendModel(provider, "cheap"); ok {
			model = name
		}
	}
	rt, ok := ai.GetRuntime(provider, ai.RuntimeConfig{
		APIKey:      key,
		BaseURL:     c.APIBase,
		Host:        c.OllamaHost,
		HTTPTimeout: 15 * time.Second,
		RetryMax:    1,
	})
	if !ok {
		return envcheck.Fail(
			fmt.Sprintf("unknown provider %q", provider),
			fmt.Sprintf("set ai_provider to one of: %s", strings.Join(ai.Providers(), ", ")),
		)
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	_, err = rt.Generate(ctx, ai.GenerateRequest{
		Model:     model,
		Messages:  []ai.Message{{Role: "user", Content: "ping"}},
		MaxTokens: 8,
	})
	if err != nil {
		return envcheck.Fail(err.Error(), probeSolution(err))
	}
	return envcheck.Pass(fmt.Sprintf("%s/%s responded", provider, model))
}

func probeSolution(err error) string {
	var authErr *ai.AuthError
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &authErr):
		return "check the API key (config api_key or the provider environment variable)"
	case errors.As(err, &dnsErr):
		return "host not found; check api_base / ollama_host"
	case errors.Is(err, context.DeadlineExceeded) || isTimeoutErr(err):
		return "endpoint timed out; check the network or raise http_timeout_sec"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused; is the endpoint running? (for ollama: 'ollama serve')"
	default:
		return "check provider settings with 'datascope config show'"
	}
}

func isTimeoutErr(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
