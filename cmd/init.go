package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/datascopehq/datascope-cli/internal/dataset"
	"github.com/datascopehq/datascope-cli/internal/envcheck"
	"github.com/datascopehq/datascope-cli/internal/launcher"
	"github.com/datascopehq/datascope-cli/internal/utils"
)

// appManifest is the app.yaml content written by init and looked up by
// launch and doctor.
type appManifest struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Server  struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Scaffold a DataScope application root",
	Long: `Init writes the app manifest, creates the working directory tree, drops a
sample dataset under examples/ and an .env.example naming the provider API
key variables. The directory defaults to the current one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}

		manifestPath := filepath.Join(root, launcher.Manifest)
		if _, err := os.Stat(manifestPath); err == nil {
			return fmt.Errorf("%s already exists; refusing to overwrite an initialized root", manifestPath)
		}

		for _, d := range launcher.RequiredDirs {
			if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
				return fmt.Errorf("create %s: %w", d, err)
			}
		}
		fmt.Printf("✓ Directory tree created (%d directories)\n", len(launcher.RequiredDirs))

		m := appManifest{Name: "DataScope", Version: appVersion}
		m.Server.Host = "localhost"
		m.Server.Port = 8501
		data, err := yaml.Marshal(&m)
		if err != nil {
			return fmt.Errorf("marshal manifest: %w", err)
		}
		if err := utils.SafeWriteFile(manifestPath, data); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
		fmt.Printf("✓ Manifest written: %s\n", manifestPath)

		samplePath := filepath.Join(root, "examples", "sample_sales.csv")
		if err := dataset.WriteCSV(dataset.Sample(), samplePath); err != nil {
			return fmt.Errorf("write sample dataset: %w", err)
		}
		fmt.Printf("✓ Sample dataset: %s\n", samplePath)

		envPath := filepath.Join(root, ".env.example")
		if err := utils.SafeWriteFile(envPath, []byte(envExample())); err != nil {
			return fmt.Errorf("write env example: %w", err)
		}
		fmt.Printf("✓ Env template: %s\n", envPath)

		fmt.Println("\nNext: copy .env.example to .env, set a provider key, then run 'datascope launch'")
		return nil
	},
}

func envExample() string {
	var b strings.Builder
	b.WriteString("# DataScope provider keys. Copy to .env and set the one you use.\n")
	for _, name := range envcheck.APIKeyEnvs() {
		b.WriteString("#" + name + "=\n")
	}
	b.WriteString("\n# The ollama provider needs no key, only a running local runtime.\n")
	return b.String()
}

func init() {
	rootCmd.AddCommand(initCmd)
}
