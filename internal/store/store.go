// Package store persists document snapshots for the server.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bethropolis/collabmd/internal/config"
)

// ErrNotFound is returned by Load for unknown documents.
var ErrNotFound = errors.New("document not found")

// Snapshot is the persisted state of one document.
type Snapshot struct {
	DocID     string    `json:"doc_id"`
	Rev       int       `json:"rev"`
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store loads and saves snapshots. Implementations are safe for concurrent use.
type Store interface {
	Load(ctx context.Context, docID string) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// Open returns the backend selected by cfg.Store.
func Open(ctx context.Context, cfg config.ServerConfig) (Store, error) {
	switch cfg.Store {
	case config.StoreMemory, "":
		return NewMemory(), nil
	case config.StoreBolt:
		return OpenBolt(cfg.BoltPath)
	case config.StoreRedis:
		return OpenRedis(ctx, cfg.RedisAddr)
	case config.StorePostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func encode(snap Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w", snap.DocID, err)
	}
	return data, nil
}

func decode(docID string, data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", docID, err)
	}
	return snap, nil
}
