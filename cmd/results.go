package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/datascopehq/datascope-cli/internal/utils"
	"github.com/datascopehq/datascope-cli/internal/workspace"
)

var (
	resRoot    string
	resKind    string
	resDataset string
	resKeep    int
	resFormat  string
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Manage saved analysis results",
	Long: `Results manages named snapshots under <root>/temp/saved_results: save a
report or dataset under a name, list and inspect snapshots, prune old ones
and export markdown reports to docx or pdf via pandoc.`,
}

var resultsSaveCmd = &cobra.Command{
	Use:   "save <name> <file>",
	Short: "Save a file as a named snapshot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, file := args[0], args[1]
		raw, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		kind := resKind
		if kind == "" {
			kind = resultKindFor(file)
		}
		var payload any
		if strings.EqualFold(filepath.Ext(file), ".json") {
			if err := sonic.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("parse JSON payload: %w", err)
			}
		} else {
			payload = string(raw)
		}
		ws := workspace.New(appRoot(resRoot))
		res, err := ws.SaveResult(name, kind, resDataset, payload)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Saved result %q (%s, id %s)\n", res.Name, res.Kind, res.ID)
		return nil
	},
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved results, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := workspace.New(appRoot(resRoot))
		all, err := ws.ListResults()
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Println("No saved results.")
			return nil
		}
		fmt.Printf("%-24s %-18s %-20s %s\n", "NAME", "KIND", "DATASET", "CREATED")
		for _, r := range all {
			fmt.Printf("%-24s %-18s %-20s %s\n", r.Name, r.Kind, r.Dataset, r.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var resultsShowCmd = &cobra.Command{
	Use:   "show <name|id>",
	Short: "Print a saved result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := workspace.New(appRoot(resRoot))
		res, err := ws.LoadResult(args[0])
		if err != nil {
			return err
		}
		body, err := utils.PrettyJSON(res)
		if err != nil {
			return err
		}
		fmt.Println(string(body))
		return nil
	},
}

var resultsDeleteCmd = &cobra.Command{
	Use:   "delete <name|id>",
	Short: "Delete a saved result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := workspace.New(appRoot(resRoot))
		if err := ws.DeleteResult(args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Deleted result: %s\n", args[0])
		return nil
	},
}

var resultsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := workspace.New(appRoot(resRoot))
		removed, err := ws.Prune(resKeep)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Pruned %d result(s), kept the newest %d\n", removed, resKeep)
		return nil
	},
}

var resultsExportCmd = &cobra.Command{
	Use:   "export <name|id>",
	Short: "Export a markdown result to docx or pdf",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := workspace.New(appRoot(resRoot))
		res, err := ws.LoadResult(args[0])
		if err != nil {
			return err
		}
		var md string
		if err := sonic.Unmarshal(res.Payload, &md); err != nil || strings.TrimSpace(md) == "" {
			return fmt.Errorf("result %q does not hold markdown text; only markdown reports can be exported", res.Name)
		}
		if err := utils.EnsureDir(ws.ReportsDir()); err != nil {
			return err
		}
		mdPath := filepath.Join(ws.ReportsDir(), fileStem(res.Name)+".md")
		if err := utils.SafeWriteFile(mdPath, []byte(md)); err != nil {
			return err
		}
		out, err := ws.ExportReport(cmd.Context(), mdPath, resFormat)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Exported: %s\n", out)
		return nil
	},
}

// fileStem makes a display name safe to use as a filename.
func fileStem(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}

// resultKindFor guesses a snapshot kind from the saved file's extension.
func resultKindFor(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json":
		return "report"
	case ".md", ".txt":
		return "markdown"
	case ".csv", ".tsv", ".xlsx":
		return "dataset"
	default:
		return "file"
	}
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsSaveCmd)
	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsShowCmd)
	resultsCmd.AddCommand(resultsDeleteCmd)
	resultsCmd.AddCommand(resultsPruneCmd)
	resultsCmd.AddCommand(resultsExportCmd)

	resultsCmd.PersistentFlags().StringVar(&resRoot, "root", "", "app root holding the results (default: detected)")
	resultsSaveCmd.Flags().StringVar(&resKind, "kind", "", "snapshot kind (default from the file extension)")
	resultsSaveCmd.Flags().StringVar(&resDataset, "dataset", "", "dataset name the result belongs to")
	resultsPruneCmd.Flags().IntVar(&resKeep, "keep", 10, "how many of the newest snapshots to keep")
	resultsExportCmd.Flags().StringVar(&resFormat, "format", "docx", "export format: "+strings.Join(workspace.ExportFormats(), "|"))
}
