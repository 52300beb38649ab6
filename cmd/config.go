package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/datascopehq/datascope-cli/internal/ai"
	cfgpkg "github.com/datascopehq/datascope-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set DataScope configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				fmt.Println("No config loaded")
				return nil
			}
			cfg = c
		}
		fmt.Printf("ai_provider: %s\n", cfg.Provider)
		model := cfg.Model
		if model == "" {
			model = "(auto)"
		}
		fmt.Printf("ai_model: %s\n", model)
		fmt.Printf("api_key: %s\n", mask(cfg.APIKey))
		if cfg.APIBase != "" {
			fmt.Printf("api_base: %s\n", cfg.APIBase)
		}
		fmt.Printf("max_tokens: %d\n", cfg.MaxTokens)
		fmt.Printf("temperature: %.3f\n", cfg.Temperature)
		fmt.Printf("embedding_model: %s\n", cfg.EmbeddingModel)
		fmt.Printf("retrieval_top_k: %d\n", cfg.RetrievalTopK)
		if cfg.RetrievalMinScore > 0 {
			fmt.Printf("retrieval_min_score: %.3f\n", cfg.RetrievalMinScore)
		}
		fmt.Printf("ollama_host: %s\n", cfg.OllamaHost)
		fmt.Printf("server_host: %s\n", cfg.ServerHost)
		fmt.Printf("server_port: %d\n", cfg.ServerPort)
		fmt.Printf("open_browser: %v\n", cfg.OpenBrowser)
		fmt.Printf("usage_stats: %v\n", cfg.UsageStats)
		if cfg.AppRoot != "" {
			fmt.Printf("app_root: %s\n", cfg.AppRoot)
		}
		fmt.Printf("store_path: %s\n", cfg.StorePath)
		fmt.Printf("viz_style: %s\n", cfg.VizStyle)
		fmt.Printf("analysis_max_rows: %d\n", cfg.AnalysisMaxRows)
		fmt.Printf("analysis_max_file_mb: %d\n", cfg.AnalysisMaxFileMB)
		fmt.Printf("http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		switch key {
		case "api_key":
			c.APIKey = val
		case "ai_provider":
			p := strings.ToLower(strings.TrimSpace(val))
			if !lo.Contains(ai.Providers(), p) {
				return fmt.Errorf("invalid ai_provider: %s (use %s)", val, strings.Join(ai.Providers(), ", "))
			}
			c.Provider = p
		case "ai_model":
			c.Model = val
		case "api_base":
			c.APIBase = val
		case "max_tokens":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for max_tokens: %w", err)
			}
			c.MaxTokens = i
		case "temperature":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid float for temperature: %w", err)
			}
			c.Temperature = f
		case "embedding_model":
			c.EmbeddingModel = val
		case "retrieval_top_k":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for retrieval_top_k: %v", val)
			}
			c.RetrievalTopK = i
		case "retrieval_min_score":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid float for retrieval_min_score: %v", val)
			}
			c.RetrievalMinScore = f
		case "ollama_host":
			c.OllamaHost = val
		case "ollama_timeout_sec":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for ollama_timeout_sec: %v", val)
			}
			c.OllamaTimeoutSec = i
		case "server_host":
			c.ServerHost = val
		case "server_port":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 || i > 65535 {
				return fmt.Errorf("invalid port for server_port: %v", val)
			}
			c.ServerPort = i
		case "open_browser":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for open_browser: %v", val)
			}
			c.OpenBrowser = b
		case "usage_stats":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for usage_stats: %v", val)
			}
			c.UsageStats = b
		case "app_root":
			c.AppRoot = val
		case "store_path":
			c.StorePath = val
		case "viz_style":
			c.VizStyle = val
		case "analysis_max_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for analysis_max_rows: %v", val)
			}
			c.AnalysisMaxRows = i
		case "analysis_max_file_mb":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for analysis_max_file_mb: %v", val)
			}
			c.AnalysisMaxFileMB = i
		case "http_timeout_sec":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for http_timeout_sec: %v", val)
			}
			c.HTTPTimeoutSec = i
		case "retry_max_attempts":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for retry_max_attempts: %v", val)
			}
			c.RetryMaxAttempts = i
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
