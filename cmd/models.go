package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/datascopehq/datascope-cli/internal/ai"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage or inspect the model catalog and pricing",
	Example: `  datascope models show
  datascope models sync --file ./models.json
  datascope models sync --file ./models.json --merge
  datascope models fetch --url https://example.com/models.json
  datascope models fetch --provider openai --merge --output models.json`,
}

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := ai.Catalog()
		// pretty-print deterministic order
		keys := make([]string, 0, len(cat))
		for k := range cat {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		m := make(map[string]ai.ModelInfo, len(keys))
		for _, k := range keys {
			m[k] = cat[k]
		}
		return enc.Encode(m)
	},
}

var (
	syncPath  string
	syncMerge bool
)

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load the model catalog/pricing from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPath == "" {
			return fmt.Errorf("--file is required")
		}
		m, err := ai.LoadCatalogFromJSON(syncPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		if syncMerge {
			ai.MergeCatalog(m)
			fmt.Println("Merged model catalog from file")
		} else {
			ai.OverrideCatalog(m)
			fmt.Println("Replaced model catalog from file")
		}
		return nil
	},
}

// providerURL returns a catalog URL for a known provider, resolved from the
// environment. Empty string if none is configured.
func providerURL(name string) string {
	switch name {
	case ai.ProviderOpenAI:
		return os.Getenv("DATASCOPE_OPENAI_CATALOG_URL")
	case ai.ProviderQwen:
		return os.Getenv("DATASCOPE_QWEN_CATALOG_URL")
	case ai.ProviderChatGLM:
		return os.Getenv("DATASCOPE_CHATGLM_CATALOG_URL")
	default:
		return ""
	}
}

var (
	fetchURL      string
	fetchOutput   string
	fetchMerge    bool
	fetchProvider string
)

var modelsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch model catalog/pricing JSON from a URL and apply it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if fetchURL == "" && fetchProvider != "" {
			if u := providerURL(fetchProvider); u != "" {
				fetchURL = u
			}
		}
		// No URL, but a known provider preset exists: apply it without network.
		if fetchURL == "" && fetchProvider != "" {
			if preset, ok := ai.PresetCatalog(fetchProvider); ok {
				if fetchMerge {
					ai.MergeCatalog(preset)
					fmt.Printf("Merged built-in '%s' preset into in-memory catalog\n", fetchProvider)
				} else {
					ai.OverrideCatalog(preset)
					fmt.Printf("Replaced in-memory catalog with built-in '%s' preset\n", fetchProvider)
				}
				if fetchOutput != "" {
					data, err := json.MarshalIndent(preset, "", "  ")
					if err != nil {
						return fmt.Errorf("marshal: %w", err)
					}
					if err := os.WriteFile(fetchOutput, data, 0o644); err != nil {
						return fmt.Errorf("write file: %w", err)
					}
					fmt.Printf("Saved preset catalog to %s\n", fetchOutput)
				}
				return nil
			}
		}
		if fetchURL == "" {
			return fmt.Errorf("--url is required (or specify --provider with a known preset)")
		}
		client := &http.Client{Timeout: 20 * time.Second}
		resp, err := client.Get(fetchURL)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			return fmt.Errorf("fetch: unexpected status %s: %s", resp.Status, string(b))
		}
		dec := json.NewDecoder(resp.Body)
		var m map[string]ai.ModelInfo
		if err := dec.Decode(&m); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		if fetchOutput != "" {
			data, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal: %w", err)
			}
			if err := os.WriteFile(fetchOutput, data, 0o644); err != nil {
				return fmt.Errorf("write file: %w", err)
			}
			fmt.Printf("Saved catalog to %s\n", fetchOutput)
		}
		if fetchMerge {
			ai.MergeCatalog(m)
			fmt.Println("Merged fetched catalog into in-memory catalog")
		} else {
			ai.OverrideCatalog(m)
			fmt.Println("Replaced in-memory catalog with fetched catalog")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(modelsSyncCmd)
	modelsCmd.AddCommand(modelsFetchCmd)

	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "path to JSON catalog file")
	modelsSyncCmd.Flags().BoolVar(&syncMerge, "merge", false, "merge into existing catalog instead of replacing")

	modelsFetchCmd.Flags().StringVar(&fetchURL, "url", "", "URL to JSON catalog file")
	modelsFetchCmd.Flags().StringVar(&fetchOutput, "output", "", "optional path to save the fetched JSON")
	modelsFetchCmd.Flags().BoolVar(&fetchMerge, "merge", false, "merge into existing catalog instead of replacing")
	modelsFetchCmd.Flags().StringVar(&fetchProvider, "provider", "", "provider preset (openai|qwen|chatglm|ollama) used when --url is not set")
}
