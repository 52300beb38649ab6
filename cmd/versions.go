package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/datascopehq/datascope-cli/internal/envcheck"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Report app, library and external tool versions",
	// Purely informational; missing tools are reported inline, never as an
	// error.
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("DataScope %s\n", appVersion)
		fmt.Printf("go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

		fmt.Println("\nLibraries:")
		for _, line := range envcheck.ModuleVersions() {
			fmt.Printf("  %s\n", line)
		}

		fmt.Println("\nExternal tools:")
		for _, line := range envcheck.ToolVersions(cmd.Context()) {
			fmt.Printf("  %s\n", line)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}
