package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var docsBucket = []byte("documents")

// Bolt stores snapshots as JSON values in a single bbolt bucket keyed by document id.
type Bolt struct {
	db *bolt.DB
}

func OpenBolt(path string) (*Bolt, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(docsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Load(_ context.Context, docID string) (Snapshot, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(docsBucket).Get([]byte(docID)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s: %w", docID, err)
	}
	if data == nil {
		return Snapshot{}, ErrNotFound
	}
	return decode(docID, data)
}

func (b *Bolt) Save(_ context.Context, snap Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(docsBucket).Put([]byte(snap.DocID), data)
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
