package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bethropolis/collabmd/internal/logger"
	"github.com/bethropolis/collabmd/internal/store"
)

var ErrUnknownDocument = errors.New("unknown document")

// Options tune document sequencing.
type Options struct {
	HistoryLimit     int
	SnapshotDebounce time.Duration
}

// Hub holds the documents that have at least one attached peer.
type Hub struct {
	store store.Store
	opts  Options

	mu   sync.Mutex
	docs map[string]*Document
}

func NewHub(st store.Store, opts Options) *Hub {
	return &Hub{store: st, opts: opts, docs: make(map[string]*Document)}
}

// Join attaches p to docID, creating a new document when docID is empty.
func (h *Hub) Join(ctx context.Context, docID string, p peer) (*Document, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.open(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := doc.attach(p); err != nil {
		return nil, err
	}
	logger.InfoTagf("server", "%s (%s) joined %s", p.UserName(), p.ClientID(), doc.ID())
	return doc, nil
}

func (h *Hub) open(ctx context.Context, docID string) (*Document, error) {
	if docID == "" {
		snap := store.Snapshot{DocID: uuid.NewString(), UpdatedAt: time.Now().UTC()}
		if err := h.store.Save(ctx, snap); err != nil {
			return nil, fmt.Errorf("create document: %w", err)
		}
		return h.add(snap), nil
	}
	if doc, ok := h.docs[docID]; ok {
		return doc, nil
	}
	snap, err := h.store.Load(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w %q", ErrUnknownDocument, docID)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", docID, err)
	}
	return h.add(snap), nil
}

func (h *Hub) add(snap store.Snapshot) *Document {
	doc := newDocument(snap, h.store, h.opts)
	h.docs[snap.DocID] = doc
	documentsGauge.Inc()
	return doc
}

// Leave detaches p. The last peer to leave saves and closes the document.
func (h *Hub) Leave(ctx context.Context, doc *Document, p peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if doc.detach(p) > 0 {
		return
	}
	if err := doc.Flush(ctx); err != nil {
		logger.ErrorTagf("server", "save %s on close: %v", doc.ID(), err)
	}
	if h.docs[doc.ID()] == doc {
		delete(h.docs, doc.ID())
		documentsGauge.Dec()
	}
	logger.InfoTagf("server", "closed %s", doc.ID())
}

// Snapshot returns the live state of an open document or the stored snapshot.
func (h *Hub) Snapshot(ctx context.Context, docID string) (store.Snapshot, error) {
	h.mu.Lock()
	doc, ok := h.docs[docID]
	h.mu.Unlock()
	if ok {
		return doc.Snapshot(), nil
	}
	snap, err := h.store.Load(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Snapshot{}, fmt.Errorf("%w %q", ErrUnknownDocument, docID)
	}
	return snap, err
}

// Flush saves every open document.
func (h *Hub) Flush(ctx context.Context) error {
	h.mu.Lock()
	docs := make([]*Document, 0, len(h.docs))
	for _, doc := range h.docs {
		docs = append(docs, doc)
	}
	h.mu.Unlock()

	var errs []error
	for _, doc := range docs {
		if err := doc.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", doc.ID(), err))
		}
	}
	return errors.Join(errs...)
}

// Open returns the number of documents in memory.
func (h *Hub) Open() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.docs)
}
