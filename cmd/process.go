package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datascopehq/datascope-cli/internal/analysis"
	"github.com/datascopehq/datascope-cli/internal/dataset"
	"github.com/datascopehq/datascope-cli/internal/utils"
)

var (
	prcOutput     string
	prcDelimiter  string
	prcDecimal    string
	prcThousands  string
	prcMaxRows    int
	prcSheetName  string
	prcSheetIndex int

	prcDedupe       bool
	prcMissing      string
	prcFillValue    string
	prcOutlierStrat string
	prcOutlierThr   float64
	prcEncode       string
	prcEncodeCols   []string
	prcScale        string
	prcScaleCols    []string
	prcInteractions []string
	prcSelectTarget string
	prcSelectTopK   int
)

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Clean and transform a dataset, writing a new CSV",
	Long: `Process runs a cleaning pipeline over a dataset: duplicate removal,
outlier blanking, missing-value handling, categorical encoding, scaling,
interaction features and feature selection (by correlation with a target,
or by variance when no target is named). Steps run in that order and only
the ones you select run at all. The cleaned table is written as CSV next
to a JSON change log.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if prcMissing == analysis.MissingFill && prcFillValue == "" {
			return fmt.Errorf("--missing fill requires --fill-value")
		}
		loadOpt, err := processLoadOptions()
		if err != nil {
			return err
		}
		t, err := dataset.Load(args[0], loadOpt)
		if err != nil {
			return err
		}

		cleaned, changes, err := analysis.Clean(t, analysis.CleanOptions{
			DropDuplicates:   prcDedupe,
			OutlierStrategy:  prcOutlierStrat,
			OutlierThreshold: prcOutlierThr,
			MissingStrategy:  prcMissing,
			FillValue:        prcFillValue,
			Encode:           prcEncode,
			EncodeColumns:    prcEncodeCols,
			Scale:            prcScale,
			ScaleColumns:     prcScaleCols,
			Interactions:     prcInteractions,
			SelectTarget:     prcSelectTarget,
			SelectTopK:       prcSelectTopK,
			Parse:            loadOpt.Parse,
		})
		if err != nil {
			return err
		}

		out := prcOutput
		if out == "" {
			base := strings.TrimSuffix(args[0], filepath.Ext(args[0]))
			out = base + "_cleaned.csv"
		}
		if err := dataset.WriteCSV(cleaned, out); err != nil {
			return err
		}

		for _, ch := range changes {
			fmt.Printf("  %s: %s\n", ch.Op, ch.Detail)
		}
		fmt.Printf("✓ Cleaned dataset written: %s (%d rows)\n", out, cleaned.NumRows())

		logPath := out + ".changes.json"
		body, err := utils.PrettyJSON(changes)
		if err != nil {
			return err
		}
		if err := utils.SafeWriteFile(logPath, body); err != nil {
			return err
		}
		fmt.Printf("✓ Change log written: %s\n", logPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().StringVarP(&prcOutput, "output", "o", "", "output CSV path (default <input>_cleaned.csv)")
	processCmd.Flags().StringVar(&prcDelimiter, "delimiter", "", "CSV delimiter: ','|';'|'tab'|'|' (sniffed if omitted)")
	processCmd.Flags().StringVar(&prcDecimal, "decimal", "", "decimal separator: '.'|'comma' (auto-detect if omitted)")
	processCmd.Flags().StringVar(&prcThousands, "thousands", "", "thousands separator: ','|'.'|'space' (auto-detect if omitted)")
	processCmd.Flags().IntVar(&prcMaxRows, "max-rows", 0, "maximum rows to process (0 = config limit)")
	processCmd.Flags().StringVar(&prcSheetName, "sheet-name", "", "XLSX: sheet name to process")
	processCmd.Flags().IntVar(&prcSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")

	processCmd.Flags().BoolVar(&prcDedupe, "dedupe", false, "drop exact duplicate rows")
	processCmd.Flags().StringVar(&prcMissing, "missing", "", "missing-value strategy: mean|median|mode|drop|fill")
	processCmd.Flags().StringVar(&prcFillValue, "fill-value", "", "constant used by --missing fill")
	processCmd.Flags().StringVar(&prcOutlierStrat, "outlier-strategy", "", "blank outlier cells first: mad|zscore|iqr|percentile")
	processCmd.Flags().Float64Var(&prcOutlierThr, "outlier-threshold", 0, "outlier threshold (strategy-specific default if 0)")
	processCmd.Flags().StringVar(&prcEncode, "encode", "", "encode categorical columns: label|onehot")
	processCmd.Flags().StringSliceVar(&prcEncodeCols, "encode-columns", nil, "columns to encode (default all categorical)")
	processCmd.Flags().StringVar(&prcScale, "scale", "", "scale numeric columns: standard|minmax")
	processCmd.Flags().StringSliceVar(&prcScaleCols, "scale-columns", nil, "columns to scale (default all numeric)")
	processCmd.Flags().StringSliceVar(&prcInteractions, "interactions", nil, "numeric columns to build pairwise product features from")
	processCmd.Flags().StringVar(&prcSelectTarget, "select-target", "", "feature selection: target column (empty = rank by variance)")
	processCmd.Flags().IntVar(&prcSelectTopK, "select-top-k", 0, "feature selection: keep the top K features")
}

func processLoadOptions() (dataset.LoadOptions, error) {
	opt := limitedLoadOptions()
	if prcMaxRows > 0 {
		opt.MaxRows = prcMaxRows
	}
	var err error
	if opt.Delimiter, err = parseDelimiter(prcDelimiter); err != nil {
		return opt, err
	}
	if opt.Parse.DecimalSeparator, err = parseDecimal(prcDecimal); err != nil {
		return opt, err
	}
	if opt.Parse.ThousandsSeparator, err = parseThousands(prcThousands); err != nil {
		return opt, err
	}
	opt.Sheet = prcSheetName
	opt.SheetIndex = prcSheetIndex
	return opt, nil
}
