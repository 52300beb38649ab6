package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datascopehq/datascope-cli/internal/ai"
	"github.com/datascopehq/datascope-cli/internal/envcheck"
	"github.com/datascopehq/datascope-cli/internal/launcher"
)

var launchRoot string

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Check dependencies, prepare the app root and start the server",
	Long: `Launch verifies the application manifest, probes the external tools
(installing missing ones once through the system package manager), creates
the working directory tree and then runs 'datascope serve' as a child
process until it exits or is interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := launchRoot
		if root == "" && cfg != nil && cfg.AppRoot != "" {
			root = cfg.AppRoot
		}
		if root == "" {
			root = launcher.DefaultRoot()
		}

		if err := launcher.EnsureManifest(root); err != nil {
			return err
		}

		fmt.Println("Checking dependencies...")
		_, attempted := envcheck.CheckDependencies(cmd.Context(), os.Stdout)
		if attempted {
			fmt.Println("\nDependencies were installed. Run 'datascope launch' again.")
			return nil
		}

		if err := launcher.Setup(root); err != nil {
			return err
		}

		outcome, keys := envcheck.CheckAPIKeys(effectiveProvider() == ai.ProviderOllama)
		for _, k := range keys {
			if k.Set {
				fmt.Printf("✓ %s set (%d chars)\n", k.Name, k.Length)
			} else {
				fmt.Printf("  %s not set\n", k.Name)
			}
		}
		if !outcome.OK {
			fmt.Println("⚠ No provider key found; AI enhancement will be unavailable")
		}

		fmt.Printf("Starting DataScope at http://localhost:8501 (Ctrl+C to stop)\n")
		stopped, err := launcher.RunServer(cmd.Context())
		if err != nil {
			return err
		}
		if stopped {
			fmt.Println("✓ DataScope stopped by user")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(launchCmd)
	launchCmd.Flags().StringVar(&launchRoot, "root", "", "application root (default: directory of the executable)")
}
