package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

const postedBucket = "posted"

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(postedBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Contains checks if the given ID has been posted.
func (b *boltStore) Contains(id string) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}

	var exists bool
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(postedBucket))
		if bucket == nil {
			return fmt.Errorf("posted bucket missing")
		}
		exists = bucket.Get([]byte(strings.TrimSpace(id))) != nil
		return nil
	})
	return exists, err
}

// Add records the given ID with the time it was posted.
func (b *boltStore) Add(id string) error {
	if b == nil || b.db == nil {
		return nil
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("empty id")
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(postedBucket))
		if bucket == nil {
			return fmt.Errorf("posted bucket missing")
		}
		return bucket.Put([]byte(id), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}
