// Package state manages AutoDoc's persistent state using BoltDB.
// All writes are transactional; reads use read-only transactions.
package state

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
)

// Bucket names
var (
	bucketServices = []byte("services")
	bucketScans    = []byte("scans")
	bucketSyncs    = []byte("syncs")
)

// DB wraps a BoltDB instance with typed accessor methods.
type DB struct {
	bolt *bbolt.DB
}

// Open opens (or creates) the state database at the given path.
func Open(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open state db %q: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketServices, bucketScans, bucketSyncs} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %q: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &DB{bolt: db}, nil
}

// Close closes the underlying BoltDB file.
func (db *DB) Close() error {
	return db.bolt.Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// Service state operations
// ─────────────────────────────────────────────────────────────────────────────

// PutServiceState upserts a ServiceState record.
func (db *DB) PutServiceState(state v1.ServiceState) error {
	return db.putJSON(bucketServices, state.Name, state)
}

// GetServiceState retrieves a ServiceState. Returns nil, nil if not found.
func (db *DB) GetServiceState(name string) (*v1.ServiceState, error) {
	var s v1.ServiceState
	found, err := db.getJSON(bucketServices, name, &s)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &s, nil
}

// DeleteServiceState removes a service record.
func (db *DB) DeleteServiceState(name string) error {
	return db.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketServices).Delete([]byte(name))
	})
}

// ListServiceStates returns all service states.
func (db *DB) ListServiceStates() ([]v1.ServiceState, error) {
	var states []v1.ServiceState
	err := db.bolt.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketServices).ForEach(func(k, v []byte) error {
			var s v1.ServiceState
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("unmarshal service %q: %w", k, err)
			}
			states = append(states, s)
			return nil
		})
	})
	return states, err
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan history
// ─────────────────────────────────────────────────────────────────────────────

// PutScanRecord appends a scan record to the history.
func (db *DB) PutScanRecord(rec v1.ScanRecord) error {
	return db.putJSON(bucketScans, rec.ID, rec)
}

// ListScanRecords returns scan records for a given kind, newest first.
// Pass empty string to return all kinds.
func (db *DB) ListScanRecords(kind v1.ScanKind) ([]v1.ScanRecord, error) {
	var recs []v1.ScanRecord
	err := db.bolt.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketScans).ForEach(func(k, v []byte) error {
			var r v1.ScanRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			if kind == "" || r.Kind == kind {
				recs = append(recs, r)
			}
			return nil
		})
	})
	sort.Slice(recs, func(i, j int) bool { return recs[i].StartedAt.After(recs[j].StartedAt) })
	return recs, err
}

// ─────────────────────────────────────────────────────────────────────────────
// Sync history
// ─────────────────────────────────────────────────────────────────────────────

// PutSyncRecord appends a GitHub sync record to the history.
func (db *DB) PutSyncRecord(rec v1.SyncRecord) error {
	return db.putJSON(bucketSyncs, rec.ID, rec)
}

// ListSyncRecords returns all sync records, newest first.
func (db *DB) ListSyncRecords() ([]v1.SyncRecord, error) {
	var recs []v1.SyncRecord
	err := db.bolt.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSyncs).ForEach(func(k, v []byte) error {
			var r v1.SyncRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			recs = append(recs, r)
			return nil
		})
	})
	sort.Slice(recs, func(i, j int) bool { return recs[i].StartedAt.After(recs[j].StartedAt) })
	return recs, err
}

// ─────────────────────────────────────────────────────────────────────────────
// Generic helpers
// ─────────────────────────────────────────────────────────────────────────────

func (db *DB) putJSON(bucket []byte, key string, val any) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return db.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (db *DB) getJSON(bucket []byte, key string, out any) (bool, error) {
	var found bool
	err := db.bolt.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, out)
	})
	return found, err
}
