package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketProfile = []byte("profile")
)

// ProfileStore implements domain.KeyValueStore using BoltDB.
type ProfileStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access).
	// Only updated after a successful commit.
	cache map[string][]byte
}

// NewProfileStore opens (or creates) the database file at path.
// An empty path selects memory-only mode (no persistence).
func NewProfileStore(path string) (*ProfileStore, error) {
	if path == "" {
		return &ProfileStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketProfile)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ProfileStore{db: db, cache: make(map[string][]byte)}, nil
}

// Close releases the database file
func (s *ProfileStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns a copy of the stored value
func (s *ProfileStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	if data, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return clone(data), true, nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, false, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProfile)
		if b == nil {
			return errors.New("profile bucket missing")
		}
		if v := b.Get([]byte(key)); v != nil {
			data = clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if data == nil {
		return nil, false, nil
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	return clone(data), true, nil
}

// Set writes a single key
func (s *ProfileStore) Set(key string, value []byte) error {
	return s.SetMany(map[string][]byte{key: value})
}

// SetMany writes all keys in one bolt transaction
func (s *ProfileStore) SetMany(values map[string][]byte) error {
	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketProfile)
			for k, v := range values {
				if err := b.Put([]byte(k), v); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to write store: %w", err)
		}
	}

	s.mu.Lock()
	for k, v := range values {
		s.cache[k] = clone(v)
	}
	s.mu.Unlock()
	return nil
}

// Delete removes keys from memory and disk
func (s *ProfileStore) Delete(keys ...string) error {
	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketProfile)
			for _, k := range keys {
				if err := b.Delete([]byte(k)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to delete from store: %w", err)
		}
	}

	s.mu.Lock()
	for _, k := range keys {
		delete(s.cache, k)
	}
	s.mu.Unlock()
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
