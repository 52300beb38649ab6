package appstate

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/datascopehq/datascope-cli/internal/dataset"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "test.db"))
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	st := NewState()
	st.SetDataset(DatasetRef{ID: "d1", Name: "demo", Rows: 5, Cols: 4}, &dataset.Validation{Valid: true, Rows: 5, Cols: 4})
	if err := s.PutSession(st); err != nil {
		t.Fatalf("PutSession: %v", err)
	}

	got, err := s.GetSession(st.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.SessionID != st.SessionID {
		t.Fatalf("session id mismatch: %s vs %s", got.SessionID, st.SessionID)
	}
	ref, ok := got.Dataset.Get()
	if !ok || ref.ID != "d1" {
		t.Fatalf("dataset ref did not persist: %+v ok=%v", ref, ok)
	}
	v, ok := got.Validation.Get()
	if !ok || !v.Valid {
		t.Fatalf("validation did not persist: %+v ok=%v", v, ok)
	}

	list, err := s.ListSessions()
	if err != nil || len(list) != 1 {
		t.Fatalf("ListSessions: %v len=%d", err, len(list))
	}

	if err := s.DeleteSession(st.SessionID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := s.GetSession(st.SessionID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStoreGetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetDataset("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteResult("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestStoreDatasetAndResults(t *testing.T) {
	s := openTestStore(t)

	rec := &DatasetRecord{
		ID: "d1", Name: "sales.csv", Path: "data/uploads/sales.csv",
		Rows: 100, Cols: 6, Kinds: map[string]string{"amount": "numeric"},
		UploadedAt: time.Now().UTC(),
	}
	if err := s.PutDataset(rec); err != nil {
		t.Fatalf("PutDataset: %v", err)
	}
	got, err := s.GetDataset("d1")
	if err != nil {
		t.Fatalf("GetDataset: %v", err)
	}
	if got.Name != "sales.csv" || got.Kinds["amount"] != "numeric" {
		t.Fatalf("dataset record mismatch: %+v", got)
	}

	res := &ResultRecord{ID: "r1", Name: "q1", Kind: "analysis", DatasetID: "d1", CreatedAt: time.Now().UTC(), Payload: []byte(`{"rows":100}`)}
	if err := s.PutResult(res); err != nil {
		t.Fatalf("PutResult: %v", err)
	}
	results, err := s.ListResults()
	if err != nil || len(results) != 1 {
		t.Fatalf("ListResults: %v len=%d", err, len(results))
	}
	if string(results[0].Payload) != `{"rows":100}` {
		t.Fatalf("payload mismatch: %s", results[0].Payload)
	}
}

func TestStoreRunCounter(t *testing.T) {
	s := openTestStore(t)
	n1, err := s.IncrementRunCount()
	if err != nil {
		t.Fatalf("IncrementRunCount: %v", err)
	}
	n2, err := s.IncrementRunCount()
	if err != nil {
		t.Fatalf("IncrementRunCount: %v", err)
	}
	if n2 != n1+1 {
		t.Fatalf("counter not monotonic: %d then %d", n1, n2)
	}
	cur, err := s.RunCount()
	if err != nil || cur != n2 {
		t.Fatalf("RunCount = %d (%v), want %d", cur, err, n2)
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	st := NewState()
	if err := s.PutSession(st); err != nil {
		t.Fatalf("PutSession: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if _, err := s2.GetSession(st.SessionID); err != nil {
		t.Fatalf("GetSession after reopen: %v", err)
	}
}
