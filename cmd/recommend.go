package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datascopehq/datascope-cli/internal/dataset"
	"github.com/datascopehq/datascope-cli/internal/modelsel"
	"github.com/datascopehq/datascope-cli/internal/utils"
)

var (
	recTarget string
	recTask   string
	recTop    int
	recJSON   bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <file>",
	Short: "Recommend model types for a dataset",
	Long: `Recommend profiles a dataset (sample count, feature kinds, missingness,
time columns) and scores candidate model families against it. Without
--task it infers one from the target column: numeric target regression,
non-numeric classification, no target descriptive.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := dataset.Load(args[0], limitedLoadOptions())
		if err != nil {
			return err
		}
		if recTarget != "" && t.ColumnIndex(recTarget) < 0 {
			return fmt.Errorf("target column %q not found in %s", recTarget, args[0])
		}

		profile := modelsel.BuildProfile(t, recTarget)
		task := recTask
		if task == "" {
			task = modelsel.SuggestTask(profile)
		}
		scored, err := modelsel.Recommend(profile, task, recTop)
		if err != nil {
			return err
		}

		if recJSON {
			doc := struct {
				Task    string            `json:"task"`
				Profile modelsel.Profile  `json:"profile"`
				Models  []modelsel.Scored `json:"models"`
			}{Task: task, Profile: profile, Models: scored}
			body, err := utils.PrettyJSON(doc)
			if err != nil {
				return err
			}
			fmt.Println(string(body))
			return nil
		}

		fmt.Printf("Task: %s\n", task)
		fmt.Printf("Profile: %d rows, %d numeric + %d categorical features, %.1f%% missing\n\n",
			profile.Samples, profile.NumericFeatures, profile.CategoricalFeatures, profile.MissingPercent)
		for _, s := range scored {
			desc := s.Description
			if len(s.Reasons) > 0 {
				desc += " [" + strings.Join(s.Reasons, "; ") + "]"
			}
			fmt.Printf("%5d  %-28s %s\n", s.Score, s.Name, desc)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().StringVar(&recTarget, "target", "", "target column (excluded from the feature counts)")
	recommendCmd.Flags().StringVar(&recTask, "task", "", "task: "+strings.Join(modelsel.Tasks(), "|")+" (inferred if omitted)")
	recommendCmd.Flags().IntVar(&recTop, "top", 5, "number of candidates to show")
	recommendCmd.Flags().BoolVar(&recJSON, "json", false, "emit the recommendation as JSON")
}
