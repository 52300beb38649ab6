package appstate

import (
	"time"

	"github.com/google/uuid"

	"github.com/datascopehq/datascope-cli/internal/dataset"
)

// DatasetRef points at a loaded dataset without holding the table itself.
type DatasetRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
}

// State is one session's explicit working state, created per session and
// passed by pointer into every handler.
type State struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Dataset    Option[DatasetRef]         `json:"dataset"`
	Validation Option[dataset.Validation] `json:"validation"`

	AnalysisDone     bool   `json:"analysis_done"`
	CleaningDone     bool   `json:"cleaning_done"`
	HasAIEnhancement bool   `json:"has_ai_enhancement"`
	LastEnhancement  string `json:"last_enhancement,omitempty"`
}

// NewState creates a fresh session state with a random id.
func NewState() *State {
	now := time.Now().UTC()
	return &State{
		SessionID:  uuid.NewString(),
		CreatedAt:  now,
		UpdatedAt:  now,
		Dataset:    None[DatasetRef](),
		Validation: None[dataset.Validation](),
	}
}

// Touch bumps the updated timestamp.
func (s *State) Touch() { s.UpdatedAt = time.Now().UTC() }

// SetDataset records the active dataset and resets downstream flags.
func (s *State) SetDataset(ref DatasetRef, v *dataset.Validation) {
	s.Dataset = Some(ref)
	if v != nil {
		s.Validation = Some(*v)
	} else {
		s.Validation = None[dataset.Validation]()
	}
	s.AnalysisDone = false
	s.CleaningDone = false
	s.HasAIEnhancement = false
	s.LastEnhancement = ""
	s.Touch()
}

// ClearDataset drops the dataset reference and everything derived from it.
func (s *State) ClearDataset() {
	s.Dataset = None[DatasetRef]()
	s.Validation = None[dataset.Validation]()
	s.AnalysisDone = false
	s.CleaningDone = false
	s.HasAIEnhancement = false
	s.LastEnhancement = ""
	s.Touch()
}

// MarkAnalyzed flags that an analysis ran for the current dataset.
func (s *State) MarkAnalyzed() {
	s.AnalysisDone = true
	s.Touch()
}

// MarkCleaned flags that a cleaning round ran for the current dataset.
func (s *State) MarkCleaned() {
	s.CleaningDone = true
	s.Touch()
}

// MarkEnhanced records a completed AI enhancement of the given type.
func (s *State) MarkEnhanced(kind string) {
	s.HasAIEnhancement = true
	s.LastEnhancement = kind
	s.Touch()
}
