package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/datascopehq/datascope-cli/internal/analysis"
	"github.com/datascopehq/datascope-cli/internal/dataset"
	"github.com/datascopehq/datascope-cli/internal/utils"
)

var (
	anaOutput     string
	anaJSON       bool
	anaDelimiter  string
	anaDecimal    string
	anaThousands  string
	anaSampleRows int
	anaMaxRows    int
	anaGroupBy    []string
	anaCorr       bool
	anaCorrMethod string
	anaCorrGroups bool
	anaOutliers   bool
	anaOutlierThr float64
	anaReliaItems []string
	anaSheetName  string
	anaSheetIndex int
	anaWorkers    int
	anaOutDir     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Profile a dataset file, or every dataset in a directory",
	Long: `Analyze loads a CSV/TSV/XLSX/JSON dataset, infers column kinds and writes
a markdown (or JSON) report: schema, statistics, outliers, correlations,
optional group-by summaries and reliability. Given a directory it analyzes
every supported file with a worker pool and writes an index alongside the
per-file reports.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loadOpt, err := analyzeLoadOptions()
		if err != nil {
			return err
		}
		opt := analyzeOptions(cmd)

		info, err := os.Stat(args[0])
		if err != nil {
			return fmt.Errorf("stat input: %w", err)
		}
		if info.IsDir() {
			return analyzeDir(args[0], loadOpt, opt)
		}
		return analyzeFile(args[0], loadOpt, opt)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutput, "output", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "emit the report as JSON instead of markdown")
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ','|';'|'tab'|'|' (sniffed if omitted)")
	analyzeCmd.Flags().StringVar(&anaDecimal, "decimal", "", "decimal separator: '.'|'comma' (auto-detect if omitted)")
	analyzeCmd.Flags().StringVar(&anaThousands, "thousands", "", "thousands separator: ','|'.'|'space' (auto-detect if omitted)")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include")
	analyzeCmd.Flags().IntVar(&anaMaxRows, "max-rows", 0, "maximum rows to process (0 = config limit)")
	analyzeCmd.Flags().StringSliceVar(&anaGroupBy, "group-by", nil, "column names to group by (repeatable)")
	analyzeCmd.Flags().BoolVar(&anaCorr, "correlations", true, "compute correlations among numeric columns")
	analyzeCmd.Flags().StringVar(&anaCorrMethod, "corr-method", "", "correlation method: pearson|spearman|kendall")
	analyzeCmd.Flags().BoolVar(&anaCorrGroups, "corr-per-group", false, "compute correlation pairs within each group")
	analyzeCmd.Flags().BoolVar(&anaOutliers, "outliers", true, "count robust outliers (MAD) per numeric column")
	analyzeCmd.Flags().Float64Var(&anaOutlierThr, "outlier-threshold", 0, "robust |z| threshold for outliers (default 3.5)")
	analyzeCmd.Flags().StringSliceVar(&anaReliaItems, "reliability", nil, "columns to compute Cronbach's alpha over")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	analyzeCmd.Flags().IntVar(&anaSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	analyzeCmd.Flags().IntVar(&anaWorkers, "workers", 4, "directory mode: parallel workers")
	analyzeCmd.Flags().StringVar(&anaOutDir, "out-dir", "", "directory mode: report output directory (default <dir>/reports)")
}

// ---- locale and load option plumbing (shared with process) ----

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s (use ','|';'|'tab'|'|')", s)
	}
}

func parseDecimal(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ".", "dot":
		return '.', nil
	default:
		return 0, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", s)
	}
}

func parseThousands(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case ".":
		return '.', nil
	case "space", " ":
		return ' ', nil
	default:
		return 0, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", s)
	}
}

// limitedLoadOptions is the default load configuration with the configured
// row and file-size caps applied.
func limitedLoadOptions() dataset.LoadOptions {
	opt := dataset.DefaultLoadOptions()
	if cfg != nil {
		if cfg.AnalysisMaxRows > 0 {
			opt.MaxRows = cfg.AnalysisMaxRows
		}
		if cfg.AnalysisMaxFileMB > 0 {
			opt.MaxBytes = int64(cfg.AnalysisMaxFileMB) << 20
		}
	}
	return opt
}

func analyzeLoadOptions() (dataset.LoadOptions, error) {
	opt := limitedLoadOptions()
	if anaMaxRows > 0 {
		opt.MaxRows = anaMaxRows
	}
	var err error
	if opt.Delimiter, err = parseDelimiter(anaDelimiter); err != nil {
		return opt, err
	}
	if opt.Parse.DecimalSeparator, err = parseDecimal(anaDecimal); err != nil {
		return opt, err
	}
	if opt.Parse.ThousandsSeparator, err = parseThousands(anaThousands); err != nil {
		return opt, err
	}
	opt.Sheet = anaSheetName
	opt.SheetIndex = anaSheetIndex
	return opt, nil
}

func analyzeOptions(cmd *cobra.Command) analysis.Options {
	opt := analysis.DefaultOptions()
	if anaSampleRows > 0 {
		opt.SampleRows = anaSampleRows
	}
	opt.GroupBy = anaGroupBy
	if cmd.Flags().Changed("correlations") {
		opt.Correlations = anaCorr
	}
	if anaCorrMethod != "" {
		opt.CorrMethod = anaCorrMethod
	}
	opt.CorrPerGroup = anaCorrGroups
	if cmd.Flags().Changed("outliers") {
		opt.Outliers = anaOutliers
	}
	if anaOutlierThr > 0 {
		opt.OutlierThreshold = anaOutlierThr
	}
	opt.ReliabilityItems = anaReliaItems
	return opt
}

func renderReport(rep *analysis.Report, asJSON bool) (string, error) {
	if asJSON {
		b, err := utils.PrettyJSON(rep)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return rep.Markdown(), nil
}

// ---- single file ----

func analyzeFile(path string, loadOpt dataset.LoadOptions, opt analysis.Options) error {
	t, err := dataset.Load(path, loadOpt)
	if err != nil {
		return err
	}
	rep := analysis.Analyze(t, opt)
	out, err := renderReport(rep, anaJSON)
	if err != nil {
		return err
	}
	if anaOutput == "" {
		fmt.Println(out)
		return nil
	}
	if err := utils.SafeWriteFile(anaOutput, []byte(out)); err != nil {
		return err
	}
	fmt.Printf("✓ Report written: %s\n", anaOutput)
	return nil
}

// ---- directory batch ----

type batchResult struct {
	file string
	out  string
	rows int
	cols int
	err  error
}

func analyzeDir(dir string, loadOpt dataset.LoadOptions, opt analysis.Options) error {
	files, err := datasetFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported dataset files under %s", dir)
	}
	outDir := anaOutDir
	if outDir == "" {
		outDir = filepath.Join(dir, "reports")
	}
	if err := utils.EnsureDir(outDir); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	workers := anaWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan string)
	results := make(chan batchResult)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- analyzeOne(path, outDir, loadOpt, opt)
			}
		}()
	}
	go func() {
		for _, f := range files {
			jobs <- f
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var all []batchResult
	for res := range results {
		if res.err != nil {
			fmt.Printf("✗ [%d/%d] %s: %v\n", len(all)+1, len(files), filepath.Base(res.file), res.err)
		} else {
			fmt.Printf("✓ [%d/%d] %s: %s\n", len(all)+1, len(files), filepath.Base(res.file), filepath.Base(res.out))
		}
		all = append(all, res)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].file < all[j].file })

	idxPath := filepath.Join(outDir, "index.md")
	if err := utils.SafeWriteFile(idxPath, []byte(batchIndex(all))); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	fmt.Printf("\n✓ Index written: %s\n", idxPath)

	failed := lo.CountBy(all, func(r batchResult) bool { return r.err != nil })
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func analyzeOne(path, outDir string, loadOpt dataset.LoadOptions, opt analysis.Options) batchResult {
	res := batchResult{file: path}
	t, err := dataset.Load(path, loadOpt)
	if err != nil {
		res.err = err
		return res
	}
	rep := analysis.Analyze(t, opt)
	res.rows = rep.Rows
	res.cols = len(rep.Cols)

	body, err := renderReport(rep, anaJSON)
	if err != nil {
		res.err = err
		return res
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ext := ".report.md"
	if anaJSON {
		ext = ".report.json"
	}
	out := filepath.Join(outDir, base+ext)
	if err := utils.SafeWriteFile(out, []byte(body)); err != nil {
		res.err = err
		return res
	}
	res.out = out
	return res
}

func datasetFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	exts := dataset.SupportedExtensions()
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if lo.Contains(exts, strings.ToLower(filepath.Ext(e.Name()))) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func batchIndex(results []batchResult) string {
	var b strings.Builder
	b.WriteString("# Analysis index\n\n")
	fmt.Fprintf(&b, "Generated %s\n\n", time.Now().Format(time.RFC3339))
	b.WriteString("| file | rows | columns | report |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(&b, "| %s | | | FAILED: %v |\n", filepath.Base(r.file), r.err)
			continue
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", filepath.Base(r.file), r.rows, r.cols, filepath.Base(r.out))
	}
	return b.String()
}
