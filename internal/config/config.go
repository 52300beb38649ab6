package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Application server
	ServerHost  string `mapstructure:"server_host" yaml:"server_host"`
	ServerPort  int    `mapstructure:"server_port" yaml:"server_port"`
	OpenBrowser bool   `mapstructure:"open_browser" yaml:"open_browser"`
	UsageStats  bool   `mapstructure:"usage_stats" yaml:"usage_stats"`
	AppRoot     string `mapstructure:"app_root" yaml:"app_root"`
	StorePath   string `mapstructure:"store_path" yaml:"store_path"`

	// AI enhancement
	Provider    string  `mapstructure:"ai_provider" yaml:"ai_provider"`
	Model       string  `mapstructure:"ai_model" yaml:"ai_model"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	APIBase     string  `mapstructure:"api_base" yaml:"api_base"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	// Context retrieval for enhancement prompts
	EmbeddingModel    string  `mapstructure:"embedding_model" yaml:"embedding_model"`
	RetrievalTopK     int     `mapstructure:"retrieval_top_k" yaml:"retrieval_top_k"`
	RetrievalMinScore float64 `mapstructure:"retrieval_min_score" yaml:"retrieval_min_score"`

	// Models catalog auto-sync
	ModelsCatalogURL string `mapstructure:"models_catalog_url" yaml:"models_catalog_url"`
	ModelsAutoSync   bool   `mapstructure:"models_auto_sync" yaml:"models_auto_sync"`
	ModelsMerge      bool   `mapstructure:"models_merge" yaml:"models_merge"`
	ModelsProvider   string `mapstructure:"models_provider" yaml:"models_provider"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaTimeoutSec int    `mapstructure:"ollama_timeout_sec" yaml:"ollama_timeout_sec"`

	// Analysis guards
	AnalysisMaxRows   int `mapstructure:"analysis_max_rows" yaml:"analysis_max_rows"`
	AnalysisMaxFileMB int `mapstructure:"analysis_max_file_mb" yaml:"analysis_max_file_mb"`
	AnalysisMaxCols   int `mapstructure:"analysis_max_cols" yaml:"analysis_max_cols"`

	// Visualization
	VizStyle string `mapstructure:"viz_style" yaml:"viz_style"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datascope/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".datascope")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATASCOPE")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server_host", "localhost")
	v.SetDefault("server_port", 8501)
	v.SetDefault("open_browser", false)
	v.SetDefault("usage_stats", false)
	v.SetDefault("store_path", filepath.Join("temp", "datascope.db"))
	v.SetDefault("ai_provider", "openai")
	v.SetDefault("ai_model", "")
	v.SetDefault("max_tokens", 4000)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("embedding_model", "nomic-embed-text")
	v.SetDefault("retrieval_top_k", 4)
	v.SetDefault("retrieval_min_score", 0.0)
	v.SetDefault("models_auto_sync", false)
	v.SetDefault("models_merge", true)
	v.SetDefault("models_provider", "")
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 30)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	// Ollama defaults
	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("ollama_timeout_sec", 60)
	// Analysis guards
	v.SetDefault("analysis_max_rows", 1000000)
	v.SetDefault("analysis_max_file_mb", 100)
	v.SetDefault("analysis_max_cols", 1000)
	// Visualization
	v.SetDefault("viz_style", "academic")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".datascope")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
