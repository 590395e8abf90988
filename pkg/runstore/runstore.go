// Package runstore keeps a history of training and comparison runs in a
// BoltDB file so results can be listed after the process exits.
package runstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const runsBucket = "runs" // run records keyed by start time then ID

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("runstore: run not found")

// ModelMetrics is the stored summary of one model in a run.
type ModelMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	AUC       float64 `json:"auc,omitempty"`
	LogLoss   float64 `json:"log_loss,omitempty"`
	FitMillis int64   `json:"fit_ms"`
	Error     string  `json:"error,omitempty"`
}

// Run is one invocation of train or compare.
type Run struct {
	ID           string                  `json:"id"`
	Command      string                  `json:"command"`
	Started      time.Time               `json:"started"`
	DataPath     string                  `json:"data_path"`
	Models       []string                `json:"models"`
	Metrics      map[string]ModelMetrics `json:"metrics"`
	ArtifactPath string                  `json:"artifact_path,omitempty"`
}

// NewRun starts a record with a fresh ID.
func NewRun(command, dataPath string, models []string) *Run {
	return &Run{
		ID:       uuid.NewString(),
		Command:  command,
		Started:  time.Now().UTC(),
		DataPath: dataPath,
		Models:   append([]string(nil), models...),
		Metrics:  map[string]ModelMetrics{},
	}
}

// Store persists runs in BoltDB.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the run database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create runs dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucket)); err != nil {
			return fmt.Errorf("create runs bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database. Closing twice is harmless.
func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// key orders runs chronologically; the ID keeps equal timestamps apart.
func key(r *Run) []byte {
	return []byte(fmt.Sprintf("%020d_%s", r.Started.UnixNano(), r.ID))
}

// Put stores or replaces a run.
func (s *Store) Put(r *Run) error {
	if r.ID == "" {
		return errors.New("runstore: run has no ID")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal run: %w", err)
		}
		return tx.Bucket([]byte(runsBucket)).Put(key(r), data)
	})
}

// List returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]*Run, error) {
	var out []*Run
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(runsBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var r Run
			if err := json.Unmarshal(v, &r); err != nil {
				continue // skip malformed records
			}
			out = append(out, &r)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// Get returns the run with the given ID.
func (s *Store) Get(id string) (*Run, error) {
	var found *Run
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(runsBucket)).ForEach(func(_, v []byte) error {
			var r Run
			if err := json.Unmarshal(v, &r); err == nil && r.ID == id {
				found = &r
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return found, nil
}
