package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/datascopehq/datascope-cli/internal/dataset"
	"github.com/datascopehq/datascope-cli/internal/viz"
)

var (
	chtRender bool
	chtOutDir string
	chtStyle  string
)

var chartsCmd = &cobra.Command{
	Use:   "charts <file>",
	Short: "Recommend charts for a dataset, optionally rendering them",
	Long: `Charts inspects the column kinds of a dataset and lists the chart types
that fit it, best first. With --render every recommendation is rendered
to an SVG figure.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := dataset.Load(args[0], limitedLoadOptions())
		if err != nil {
			return err
		}
		recs := viz.Recommend(t)
		if len(recs) == 0 {
			fmt.Println("No chart recommendations for this dataset.")
			return nil
		}
		for _, r := range recs {
			fmt.Printf("- %s: %s\n", r.Type, r.Reason)
		}
		if !chtRender {
			return nil
		}

		styleName := chtStyle
		if styleName == "" && cfg != nil {
			styleName = cfg.VizStyle
		}
		style := viz.StylePreset(styleName)

		outDir := chtOutDir
		if outDir == "" {
			outDir = filepath.Join(appRoot(""), "temp", "figures")
		}
		fmt.Println()
		rendered, failed := 0, 0
		for _, r := range recs {
			spec, err := viz.BuildSpec(t, r.Type, r.X, r.Y, "", style)
			if err != nil {
				fmt.Printf("✗ %s: %v\n", r.Type, err)
				failed++
				continue
			}
			path, err := viz.SaveFigure(outDir, spec)
			if err != nil {
				fmt.Printf("✗ %s: %v\n", r.Type, err)
				failed++
				continue
			}
			fmt.Printf("✓ %s: %s\n", r.Type, path)
			rendered++
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d charts failed to render", failed, rendered+failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartsCmd)
	chartsCmd.Flags().BoolVar(&chtRender, "render", false, "render each recommendation to an SVG figure")
	chartsCmd.Flags().StringVar(&chtOutDir, "out-dir", "", "figure output directory (default <root>/temp/figures)")
	chartsCmd.Flags().StringVar(&chtStyle, "style", "", "style preset: academic|business|modern (default from config)")
}
