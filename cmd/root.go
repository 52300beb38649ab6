package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/datascopehq/datascope-cli/internal/ai"
	cfgpkg "github.com/datascopehq/datascope-cli/internal/config"
	"github.com/datascopehq/datascope-cli/internal/utils"
)

// appVersion is reported by the versions command, the landing page and
// /api/version.
const appVersion = "1.0.0"

var (
	// Global flags (wired to config/viper)
	cfgFile string
	debug   bool
	quiet   bool
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "datascope",
	Short: "DataScope: local data analysis from the command line",
	Long: `DataScope loads tabular datasets (CSV, TSV, XLSX, JSON), profiles and
cleans them, recommends analysis methods and charts, renders figures and
markdown reports, and optionally enhances reports with an AI provider.
The serve command hosts the same pipeline as a local HTTP application.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize logging and configuration before executing commands
	cobra.OnInitialize(initApp)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.datascope/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "log errors only")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func initApp() {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()
	setupLogging()
	loadConfig()
}

func setupLogging() {
	level := zerolog.InfoLevel
	if quiet {
		level = zerolog.ErrorLevel
	}
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}

	// Optional: auto-sync the model catalog at startup
	if cfg.ModelsAutoSync {
		switch {
		case cfg.ModelsCatalogURL != "":
			if err := fetchAndApplyCatalog(cfg.ModelsCatalogURL, cfg.ModelsMerge); err != nil {
				fmt.Fprintf(os.Stderr, "⚠ Warning: models auto-sync failed: %v\n", err)
			}
		case cfg.ModelsProvider != "":
			if preset, ok := ai.PresetCatalog(cfg.ModelsProvider); ok {
				if cfg.ModelsMerge {
					ai.MergeCatalog(preset)
				} else {
					ai.OverrideCatalog(preset)
				}
			}
		}
	}
}

// ensureConfig returns the loaded configuration, loading it on demand for
// invocations that bypass the cobra initializer (tests).
func ensureConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// appRoot resolves the application root: an explicit flag wins, then the
// configured root, then the nearest directory holding app.yaml, then cwd.
func appRoot(flagVal string) string {
	if flagVal != "" {
		return flagVal
	}
	if cfg != nil && cfg.AppRoot != "" {
		return cfg.AppRoot
	}
	if root, err := utils.FindAppRoot(""); err == nil {
		return root
	}
	return "."
}

// fetchAndApplyCatalog downloads a JSON catalog and applies it in-memory.
func fetchAndApplyCatalog(url string, merge bool) error {
	client := &http.Client{Timeout: 20 * time.Second}
	resp, err := client.Get(url)
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
	if merge {
		ai.MergeCatalog(m)
	} else {
		ai.OverrideCatalog(m)
	}
	return nil
}
