package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bethropolis/collabmd/internal/logger"
	"github.com/bethropolis/collabmd/internal/ot"
	"github.com/bethropolis/collabmd/internal/protocol"
	"github.com/bethropolis/collabmd/internal/store"
	"github.com/bethropolis/collabmd/internal/utils"
)

var (
	ErrStaleRevision  = errors.New("base revision no longer retained")
	ErrFutureRevision = errors.New("base revision ahead of server")
	ErrNotParented    = errors.New("update not parented on own acknowledged changes")
	ErrInvalidOps     = errors.New("invalid operations")
)

const saveTimeout = 5 * time.Second

// peer is a connection attached to a document.
type peer interface {
	ClientID() string
	UserName() string
	deliver(data []byte)
}

type patch struct {
	clientID string
	ops      []ot.Op
}

// Document sequences updates for one shared text. Every accepted update gets
// the next revision number and is broadcast to all attached peers in that
// order.
type Document struct {
	id           string
	store        store.Store
	historyLimit int
	debounce     time.Duration
	saver        utils.Debouncer

	mu      sync.Mutex
	text    string
	rev     int
	history []patch // history[i] produced revision rev-len(history)+i+1
	peers   map[peer]struct{}
	dirty   bool
}

func newDocument(snap store.Snapshot, st store.Store, opts Options) *Document {
	return &Document{
		id:           snap.DocID,
		store:        st,
		historyLimit: opts.HistoryLimit,
		debounce:     opts.SnapshotDebounce,
		text:         snap.Text,
		rev:          snap.Rev,
		peers:        make(map[peer]struct{}),
	}
}

func (d *Document) ID() string { return d.id }

// Snapshot returns the current revision and text.
func (d *Document) Snapshot() store.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return store.Snapshot{DocID: d.id, Rev: d.rev, Text: d.text, UpdatedAt: time.Now().UTC()}
}

// attach sends the welcome to p before any later change can reach it.
func (d *Document) attach(p peer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	welcome, err := protocol.Encode(protocol.Welcome(d.id, p.ClientID(), d.rev, d.text))
	if err != nil {
		return err
	}
	p.deliver(welcome)
	d.peers[p] = struct{}{}
	d.broadcastPresence()
	return nil
}

// detach removes p and reports how many peers remain.
func (d *Document) detach(p peer) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.peers[p]; ok {
		delete(d.peers, p)
		d.broadcastPresence()
	}
	return len(d.peers)
}

func (d *Document) broadcastPresence() {
	users := make([]string, 0, len(d.peers))
	for p := range d.peers {
		users = append(users, p.UserName())
	}
	sort.Strings(users)
	d.broadcast(protocol.Presence(users))
}

func (d *Document) broadcast(msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		logger.ErrorTagf("server", "encode %s for %s: %v", msg.Type, d.id, err)
		return
	}
	for p := range d.peers {
		p.deliver(data)
	}
}

// ApplyUpdate rebases ops made against baseRev over the retained history,
// applies them and broadcasts the resulting change.
func (d *Document) ApplyUpdate(clientID string, baseRev int, opStrs []string) (protocol.Message, error) {
	start := time.Now()
	defer func() { applyDuration.Observe(time.Since(start).Seconds()) }()

	ops, err := ot.DecodeOps(opStrs)
	if err != nil {
		updatesTotal.WithLabelValues(resultRejected).Inc()
		return protocol.Message{}, fmt.Errorf("%w: %v", ErrInvalidOps, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	oldest := d.rev - len(d.history)
	switch {
	case baseRev < oldest:
		updatesTotal.WithLabelValues(resultStale).Inc()
		return protocol.Message{}, fmt.Errorf("base %d, oldest %d: %w", baseRev, oldest, ErrStaleRevision)
	case baseRev > d.rev:
		updatesTotal.WithLabelValues(resultRejected).Inc()
		return protocol.Message{}, fmt.Errorf("base %d, current %d: %w", baseRev, d.rev, ErrFutureRevision)
	}

	for _, p := range d.history[baseRev-oldest:] {
		if p.clientID == clientID {
			updatesTotal.WithLabelValues(resultRejected).Inc()
			return protocol.Message{}, fmt.Errorf("client %s at base %d: %w", clientID, baseRev, ErrNotParented)
		}
		ops, _ = ot.TransformPatch(ops, p.ops)
	}

	text, err := ot.ApplyPatch(d.text, ops)
	if err != nil {
		updatesTotal.WithLabelValues(resultRejected).Inc()
		return protocol.Message{}, fmt.Errorf("%w: %v", ErrInvalidOps, err)
	}

	d.text = text
	d.rev++
	d.history = append(d.history, patch{clientID: clientID, ops: ops})
	if over := len(d.history) - d.historyLimit; d.historyLimit > 0 && over > 0 {
		d.history = append([]patch(nil), d.history[over:]...)
	}
	d.dirty = true
	d.scheduleSave()
	updatesTotal.WithLabelValues(resultApplied).Inc()

	change := protocol.Change(d.rev, clientID, ot.EncodeOps(ops))
	logger.DebugTagf("server", "%s rev %d from %s: %v", d.id, d.rev, clientID, ops)
	d.broadcast(change)
	return change, nil
}

func (d *Document) scheduleSave() {
	if d.store == nil {
		return
	}
	d.saver.Debounce(d.debounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := d.Flush(ctx); err != nil {
			logger.ErrorTagf("server", "save %s: %v", d.id, err)
		}
	})
}

// Flush saves the document if it changed since the last save.
func (d *Document) Flush(ctx context.Context) error {
	d.saver.Stop()
	d.mu.Lock()
	if !d.dirty || d.store == nil {
		d.mu.Unlock()
		return nil
	}
	snap := store.Snapshot{DocID: d.id, Rev: d.rev, Text: d.text, UpdatedAt: time.Now().UTC()}
	d.dirty = false
	d.mu.Unlock()

	if err := d.store.Save(ctx, snap); err != nil {
		snapshotErrors.Inc()
		d.mu.Lock()
		d.dirty = true
		d.mu.Unlock()
		return err
	}
	logger.DebugTagf("server", "saved %s at rev %d", d.id, snap.Rev)
	return nil
}
