package appstate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when a record does not exist in the store.
var ErrNotFound = errors.New("record not found")

var (
	bucketSessions = []byte("sessions")
	bucketDatasets = []byte("datasets")
	bucketResults  = []byte("results")
	bucketMeta     = []byte("meta")
)

// DatasetRecord is the persisted metadata of an uploaded dataset.
type DatasetRecord struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Path       string            `json:"path"`
	Rows       int               `json:"rows"`
	Cols       int               `json:"cols"`
	Kinds      map[string]string `json:"kinds,omitempty"`
	UploadedAt time.Time         `json:"uploaded_at"`
}

// ResultRecord is one persisted analysis result snapshot.
type ResultRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	DatasetID string    `json:"dataset_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Payload   []byte    `json:"payload,omitempty"`
}

// Store is the bbolt-backed persistence layer behind the app server:
// sessions, uploaded datasets, result snapshots and the local run counter.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the store file, creating parent directories and
// the fixed bucket set. The open uses a 1s lock timeout so a second process
// fails fast instead of hanging.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketSessions, bucketDatasets, bucketResults, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the store file location.
func (s *Store) Path() string { return s.db.Path() }

func (s *Store) put(bucket []byte, key string, v any) error {
	if key == "" {
		return errors.New("empty key")
	}
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *Store) get(bucket []byte, key string, v any) error {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucket).Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}
		data = append(data, raw...)
		return nil
	})
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

func (s *Store) delete(bucket []byte, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b.Get([]byte(key)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(key))
	})
}

// ---- Sessions ----

func (s *Store) PutSession(st *State) error {
	return s.put(bucketSessions, st.SessionID, st)
}

func (s *Store) GetSession(id string) (*State, error) {
	var st State
	if err := s.get(bucketSessions, id, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) DeleteSession(id string) error {
	return s.delete(bucketSessions, id)
}

func (s *Store) ListSessions() ([]*State, error) {
	var out []*State
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).ForEach(func(_, v []byte) error {
			var st State
			if err := sonic.Unmarshal(v, &st); err != nil {
				return fmt.Errorf("decode session: %w", err)
			}
			out = append(out, &st)
			return nil
		})
	})
	return out, err
}

// ---- Datasets ----

func (s *Store) PutDataset(rec *DatasetRecord) error {
	return s.put(bucketDatasets, rec.ID, rec)
}

func (s *Store) GetDataset(id string) (*DatasetRecord, error) {
	var rec DatasetRecord
	if err := s.get(bucketDatasets, id, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) DeleteDataset(id string) error {
	return s.delete(bucketDatasets, id)
}

func (s *Store) ListDatasets() ([]*DatasetRecord, error) {
	var out []*DatasetRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDatasets).ForEach(func(_, v []byte) error {
			var rec DatasetRecord
			if err := sonic.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode dataset: %w", err)
			}
			out = append(out, &rec)
			return nil
		})
	})
	return out, err
}

// ---- Results ----

func (s *Store) PutResult(rec *ResultRecord) error {
	return s.put(bucketResults, rec.ID, rec)
}

func (s *Store) GetResult(id string) (*ResultRecord, error) {
	var rec ResultRecord
	if err := s.get(bucketResults, id, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) DeleteResult(id string) error {
	return s.delete(bucketResults, id)
}

func (s *Store) ListResults() ([]*ResultRecord, error) {
	var out []*ResultRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketResults).ForEach(func(_, v []byte) error {
			var rec ResultRecord
			if err := sonic.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode result: %w", err)
			}
			out = append(out, &rec)
			return nil
		})
	})
	return out, err
}

// ---- Usage counter ----

// IncrementRunCount bumps the local run counter and returns the new value.
// The counter never leaves the machine.
func (s *Store) IncrementRunCount() (uint64, error) {
	var n uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		seq, err := tx.Bucket(bucketMeta).NextSequence()
		if err != nil {
			return err
		}
		n = seq
		return nil
	})
	return n, err
}

// RunCount reads the local run counter.
func (s *Store) RunCount() (uint64, error) {
	var n uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketMeta).Sequence()
		return nil
	})
	return n, err
}
