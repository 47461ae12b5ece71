// Package tracestore is an optional, bolt-backed recorder of completed
// per-event hook execution traces, inspected by cmd/wpdb. This is
// execution history for post-mortem debugging, not the dispatcher's
// pending event queue -- the engine still never persists that (§1
// Non-goals).
//
// Grounded on the teacher's cmd/mservice/storage/bolt.Storage: a single
// bucket, one key per trace, JSON-encoded values.
package tracestore

import (
	"encoding/json"
	"time"

	"go.etcd.io/bbolt"
)

// HookRecord is one hook's contribution to an event's trace.
type HookRecord struct {
	Hook     string        `json:"hook"`
	Async    bool          `json:"async"`
	Steps    []string      `json:"steps,omitempty"`
	Err      string        `json:"err,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Trace is the full record of one event's dispatch.
type Trace struct {
	EventType string       `json:"eventType"`
	Priority  int          `json:"priority"`
	Hooks     []HookRecord `json:"hooks"`
	StartedAt time.Time    `json:"startedAt"`
	Cancelled bool         `json:"cancelled,omitempty"`
}

var bucketName = []byte("traces")

// Store is a bolt-backed Trace recorder.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) the bolt database at filename.
func Open(filename string) (*Store, error) {
	db, err := bbolt.Open(filename, 0644, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a Trace under key id (typically a correlation ID or
// sequence number), replacing any Trace already stored under that id.
func (s *Store) Record(id string, t *Trace) error {
	js, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(id), js)
	})
}

// Get retrieves the Trace recorded under id, if any.
func (s *Store) Get(id string) (*Trace, bool, error) {
	var (
		t     Trace
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(id))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &t)
	})
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return &t, true, nil
}

// Each calls fn for every recorded Trace, in bolt's key order.
func (s *Store) Each(fn func(id string, t *Trace) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, v []byte) error {
			var t Trace
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			return fn(string(k), &t)
		})
	})
}
