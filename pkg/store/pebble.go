// Package store wraps a Pebble database behind a small keyed-value API.
// It backs the vote ledger and the persisted pause flag; keys are plain
// strings namespaced by prefix (e.g. "vote:<widgetID>").
package store

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/pebble"

	"engagekit/pkg/logger"
)

// Store is an opened Pebble database. It is safe for concurrent use;
// Pebble serializes writes internally.
type Store struct {
	db   *pebble.DB
	path string
}

// Open opens (or creates) a Pebble database at the given path.
func Open(path string) (*Store, error) {
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	logger.Info("pebble_opened", "path", path)
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	logger.Info("pebble_closed", "path", s.path)
	return nil
}

// Ready reports whether the store is opened and usable.
func (s *Store) Ready() bool {
	return s != nil && s.db != nil
}

// Set durably writes value under key (synced to disk before return).
func (s *Store) Set(key string, value []byte) error {
	if s.db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return s.db.Set([]byte(key), value, pebble.Sync)
}

// Get returns the value for key. The second return is false when the key
// is absent.
func (s *Store) Get(key string) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := s.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	out := append([]byte(nil), v...)
	_ = closer.Close()
	return out, true, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if s.db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return s.db.Delete([]byte(key), pebble.Sync)
}

// ScanPrefix visits every key with the given prefix in key order. The
// callback receives a stable copy of the value; returning an error stops
// the scan and propagates it.
func (s *Store) ScanPrefix(prefix string, fn func(key string, value []byte) error) error {
	if s.db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	p := []byte(prefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.SeekGE(p); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), p) {
			break
		}
		v := append([]byte(nil), iter.Value()...)
		if err := fn(string(iter.Key()), v); err != nil {
			return err
		}
	}
	return iter.Error()
}
