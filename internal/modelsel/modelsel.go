// Package modelsel recommends analysis methods for a dataset. A static
// registry describes what each method needs (features, samples, target,
// time index); profiling a table against those needs yields a 0-100 score
// per candidate with human-readable reasons.
package modelsel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datascopehq/datascope-cli/internal/dataset"
)

// Analysis tasks.
const (
	TaskRegression       = "regression"
	TaskClassification   = "classification"
	TaskClustering       = "clustering"
	TaskTimeSeries       = "time_series"
	TaskAnomalyDetection = "anomaly_detection"
	TaskDescriptive      = "descriptive"
)

// Tasks lists the supported tasks in display order.
func Tasks() []string {
	return []string{
		TaskRegression, TaskClassification, TaskClustering,
		TaskTimeSeries, TaskAnomalyDetection, TaskDescriptive,
	}
}

// Candidate describes one method and its data requirements.
type Candidate struct {
	Name        string `json:"name"`
	Task        string `json:"task"`
	MinFeatures int    `json:"min_features"`
	MinSamples  int    `json:"min_samples"`
	MaxClasses  int    `json:"max_classes,omitempty"` // 0 = unlimited
	NeedsTarget bool   `json:"needs_target"`
	NeedsDate   bool   `json:"needs_date"`
	Description string `json:"description"`
}

var catalog = map[string][]Candidate{
	TaskRegression: {
		{Name: "linear_regression", Task: TaskRegression, MinFeatures: 1, MinSamples: 20, NeedsTarget: true,
			Description: "ordinary least squares; fast, interpretable coefficients"},
		{Name: "random_forest_regressor", Task: TaskRegression, MinFeatures: 1, MinSamples: 50, NeedsTarget: true,
			Description: "ensemble of trees; handles non-linearity and interactions"},
		{Name: "xgboost_regressor", Task: TaskRegression, MinFeatures: 1, MinSamples: 30, NeedsTarget: true,
			Description: "gradient boosting; strong accuracy on tabular data"},
	},
	TaskClassification: {
		{Name: "logistic_regression", Task: TaskClassification, MinFeatures: 1, MinSamples: 30, MaxClasses: 2, NeedsTarget: true,
			Description: "linear classifier for binary targets; calibrated probabilities"},
		{Name: "random_forest_classifier", Task: TaskClassification, MinFeatures: 1, MinSamples: 50, NeedsTarget: true,
			Description: "ensemble of trees; robust multi-class baseline"},
		{Name: "xgboost_classifier", Task: TaskClassification, MinFeatures: 1, MinSamples: 30, NeedsTarget: true,
			Description: "gradient boosting; strong accuracy on tabular data"},
	},
	TaskClustering: {
		{Name: "kmeans", Task: TaskClustering, MinFeatures: 2, MinSamples: 50,
			Description: "centroid clustering; needs a cluster count up front"},
		{Name: "dbscan", Task: TaskClustering, MinFeatures: 2, MinSamples: 30,
			Description: "density clustering; finds arbitrary shapes, flags noise"},
	},
	TaskTimeSeries: {
		{Name: "arima", Task: TaskTimeSeries, MinFeatures: 1, MinSamples: 100, NeedsTarget: true, NeedsDate: true,
			Description: "autoregressive forecasting for stationary series"},
		{Name: "prophet", Task: TaskTimeSeries, MinFeatures: 1, MinSamples: 50, NeedsTarget: true, NeedsDate: true,
			Description: "trend/seasonality decomposition; tolerant of gaps"},
	},
	TaskAnomalyDetection: {
		{Name: "isolation_forest", Task: TaskAnomalyDetection, MinFeatures: 2, MinSamples: 100,
			Description: "tree-based isolation of outlying rows"},
		{Name: "one_class_svm", Task: TaskAnomalyDetection, MinFeatures: 2, MinSamples: 50,
			Description: "boundary around normal observations"},
	},
	TaskDescriptive: {
		{Name: "descriptive_stats", Task: TaskDescriptive, MinFeatures: 1, MinSamples: 1,
			Description: "summary statistics per column"},
		{Name: "correlation_analysis", Task: TaskDescriptive, MinFeatures: 2, MinSamples: 10,
			Description: "pairwise association between numeric columns"},
	},
}

// Candidates returns the registered methods for a task.
func Candidates(task string) ([]Candidate, bool) {
	c, ok := catalog[task]
	return c, ok
}

// Profile is what the scorer needs to know about a dataset.
type Profile struct {
	Samples             int     `json:"samples"`
	NumericFeatures     int     `json:"numeric_features"`
	CategoricalFeatures int     `json:"categorical_features"`
	MissingPercent      float64 `json:"missing_percent"`
	HasDateColumn       bool    `json:"has_date_column"`

	Target        string `json:"target,omitempty"`
	TargetKind    string `json:"target_kind,omitempty"`
	TargetClasses int    `json:"target_classes,omitempty"`
}

// BuildProfile derives a Profile from a detected table. target may be empty;
// when set, that column is excluded from the feature counts.
func BuildProfile(t *dataset.Table, target string) Profile {
	p := Profile{Samples: t.NumRows()}
	ti := -1
	if target != "" {
		ti = t.ColumnIndex(target)
	}
	missing := 0
	for j, c := range t.Columns {
		missing += t.MissingCount(j)
		if isDateColumn(c) {
			p.HasDateColumn = true
		}
		if j == ti {
			continue
		}
		switch c.Kind {
		case dataset.KindNumeric:
			p.NumericFeatures++
		case dataset.KindCategorical:
			p.CategoricalFeatures++
		}
	}
	if cells := t.NumRows() * t.NumCols(); cells > 0 {
		p.MissingPercent = float64(missing) * 100.0 / float64(cells)
	}
	if ti >= 0 {
		p.Target = t.Columns[ti].Name
		p.TargetKind = t.Columns[ti].Kind
		if t.Columns[ti].Kind != dataset.KindNumeric {
			p.TargetClasses = distinctValues(t, ti)
		}
	}
	return p
}

// isDateColumn treats detected datetime kinds and date-ish names as a usable
// time index.
func isDateColumn(c dataset.Column) bool {
	if c.Kind == dataset.KindDatetime {
		return true
	}
	name := strings.ToLower(c.Name)
	return strings.Contains(name, "date") || strings.Contains(name, "time")
}

func distinctValues(t *dataset.Table, col int) int {
	seen := map[string]bool{}
	for r := 0; r < t.NumRows(); r++ {
		v := strings.TrimSpace(t.Cell(r, col))
		if v == "" {
			continue
		}
		seen[v] = true
	}
	return len(seen)
}

// SuggestTask picks a task from the profile: numeric target regression,
// non-numeric target classification, no target descriptive.
func SuggestTask(p Profile) string {
	if p.Target == "" {
		return TaskDescriptive
	}
	if p.TargetKind == dataset.KindNumeric {
		return TaskRegression
	}
	return TaskClassification
}

// Scored is a candidate with its suitability score and reasons.
type Scored struct {
	Candidate
	Score   int      `json:"score"`
	Reasons []string `json:"reasons,omitempty"`
}

// Recommend scores the task's candidates against the profile and returns
// them best first, cut to topN (topN <= 0 keeps all). An empty task is
// resolved with SuggestTask.
func Recommend(p Profile, task string, topN int) ([]Scored, error) {
	if task == "" {
		task = SuggestTask(p)
	}
	cands, ok := Candidates(task)
	if !ok {
		return nil, fmt.Errorf("unknown task %q (supported: %s)", task, strings.Join(Tasks(), ", "))
	}
	out := make([]Scored, 0, len(cands))
	for _, c := range cands {
		out = append(out, score(p, c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].Name < out[j].Name
		}
		return out[i].Score > out[j].Score
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

// score rates one candidate 0-100 for the profile.
func score(p Profile, c Candidate) Scored {
	s := Scored{Candidate: c, Score: 100}
	unusable := false

	if c.NeedsTarget && p.Target == "" {
		unusable = true
		s.Reasons = append(s.Reasons, "requires a target column")
	}
	if c.MaxClasses > 0 && p.TargetClasses > c.MaxClasses {
		unusable = true
		s.Reasons = append(s.Reasons, fmt.Sprintf("target has %d classes; supports at most %d", p.TargetClasses, c.MaxClasses))
	}
	if p.NumericFeatures < c.MinFeatures {
		deficit := c.MinFeatures - p.NumericFeatures
		pen := deficit * 10
		if pen > 30 {
			pen = 30
		}
		s.Score -= pen
		s.Reasons = append(s.Reasons, fmt.Sprintf("needs %d numeric features, have %d", c.MinFeatures, p.NumericFeatures))
	}
	if p.Samples < c.MinSamples {
		deficit := c.MinSamples - p.Samples
		pen := int(float64(deficit) * 0.5)
		if pen > 20 {
			pen = 20
		}
		s.Score -= pen
		s.Reasons = append(s.Reasons, fmt.Sprintf("needs %d samples, have %d", c.MinSamples, p.Samples))
	}
	if c.NeedsDate && !p.HasDateColumn {
		unusable = true
		s.Reasons = append(s.Reasons, "time series needs a date or time column")
	}
	switch {
	case p.MissingPercent > 50:
		s.Score -= 15
		s.Reasons = append(s.Reasons, fmt.Sprintf("%.1f%% of cells are missing", p.MissingPercent))
	case p.MissingPercent > 20:
		s.Score -= 5
		s.Reasons = append(s.Reasons, fmt.Sprintf("%.1f%% of cells are missing", p.MissingPercent))
	}
	// Descriptive methods always apply.
	if c.Task == TaskDescriptive && s.Score < 80 {
		s.Score = 80
	}
	if unusable {
		s.Score = 0
	}
	if s.Score < 0 {
		s.Score = 0
	}
	if s.Score > 100 {
		s.Score = 100
	}
	return s
}
