// Package workspace manages named analysis snapshots under the app root:
// saved results in temp/saved_results and report exports in temp/exports.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/datascopehq/datascope-cli/internal/utils"
)

// ErrNotFound reports a saved result that does not exist.
var ErrNotFound = errors.New("saved result not found")

// SavedResult is one named snapshot persisted as JSON.
type SavedResult struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      string          `json:"kind"`
	Dataset   string          `json:"dataset,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Workspace is rooted at the application directory.
type Workspace struct {
	root string
}

// New returns a workspace over the given app root.
func New(root string) *Workspace { return &Workspace{root: root} }

// ResultsDir is where snapshots live.
func (w *Workspace) ResultsDir() string { return filepath.Join(w.root, "temp", "saved_results") }

// ExportsDir is where pandoc exports land.
func (w *Workspace) ExportsDir() string { return filepath.Join(w.root, "temp", "exports") }

// ReportsDir is where markdown reports land.
func (w *Workspace) ReportsDir() string { return filepath.Join(w.root, "temp", "reports") }

// slugName maps a display name onto a stable filename stem.
func slugName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		s = "result"
	}
	return s
}

func (w *Workspace) resultPath(name string) string {
	return filepath.Join(w.ResultsDir(), slugName(name)+".json")
}

// SaveResult snapshots a payload under a display name. Saving an existing
// name replaces the snapshot.
func (w *Workspace) SaveResult(name, kind, dataset string, payload any) (*SavedResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("result name cannot be empty")
	}
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	res := &SavedResult{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      kind,
		Dataset:   dataset,
		CreatedAt: time.Now().UTC(),
		Payload:   raw,
	}
	if err := utils.EnsureDir(w.ResultsDir()); err != nil {
		return nil, fmt.Errorf("ensure results dir: %w", err)
	}
	data, err := utils.PrettyJSON(res)
	if err != nil {
		return nil, err
	}
	if err := utils.SafeWriteFile(w.resultPath(name), data); err != nil {
		return nil, fmt.Errorf("write result: %w", err)
	}
	return res, nil
}

// ListResults returns every snapshot, newest first.
func (w *Workspace) ListResults() ([]SavedResult, error) {
	entries, err := os.ReadDir(w.ResultsDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read results dir: %w", err)
	}
	var out []SavedResult
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(w.ResultsDir(), e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		var res SavedResult
		if err := sonic.Unmarshal(b, &res); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// LoadResult fetches a snapshot by display name or id.
func (w *Workspace) LoadResult(key string) (*SavedResult, error) {
	b, err := os.ReadFile(w.resultPath(key))
	if err == nil {
		var res SavedResult
		if err := sonic.Unmarshal(b, &res); err != nil {
			return nil, fmt.Errorf("parse result: %w", err)
		}
		return &res, nil
	}
	// Fall back to an id scan.
	all, listErr := w.ListResults()
	if listErr != nil {
		return nil, listErr
	}
	for i := range all {
		if all[i].ID == key {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
}

// DeleteResult removes a snapshot by display name or id.
func (w *Workspace) DeleteResult(key string) error {
	path := w.resultPath(key)
	if _, err := os.Stat(path); err != nil {
		res, loadErr := w.LoadResult(key)
		if loadErr != nil {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		path = w.resultPath(res.Name)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return nil
}

// Prune keeps the newest keep snapshots and removes the rest, returning how
// many were deleted.
func (w *Workspace) Prune(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	all, err := w.ListResults()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, res := range all[minInt(keep, len(all)):] {
		if err := os.Remove(w.resultPath(res.Name)); err != nil {
			return removed, fmt.Errorf("prune %s: %w", res.Name, err)
		}
		removed++
	}
	return removed, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
