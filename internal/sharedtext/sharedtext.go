// Package sharedtext is the client replica of a shared document.
//
// Local edits are applied immediately and queued for the server. At most one
// patch is in flight; edits made while waiting for its acknowledgement are
// buffered and sent together once it arrives. Changes from other clients are
// rebased over the in-flight and buffered ops before being applied, and every
// change is announced on the event bus as a collab.ChangeNotification.
package sharedtext

import (
	"errors"
	"fmt"

	"github.com/bethropolis/collabmd/internal/collab"
	"github.com/bethropolis/collabmd/internal/event"
	"github.com/bethropolis/collabmd/internal/logger"
	"github.com/bethropolis/collabmd/internal/ot"
	"github.com/bethropolis/collabmd/internal/protocol"
	"github.com/bethropolis/collabmd/internal/utils"
)

var (
	ErrOutOfRange   = errors.New("position out of range")
	ErrDisconnected = errors.New("not connected")
	ErrRevision     = errors.New("unexpected revision")
)

// Outbox delivers messages to the server.
type Outbox interface {
	Connected() bool
	Send(msg protocol.Message) error
}

// SharedString is not safe for concurrent use. The client loop owns it.
type SharedString struct {
	events *event.Manager
	outbox Outbox

	clientID string
	rev      int
	text     string

	inflight []ot.Op // sent, waiting for our own change to come back
	buffer   []ot.Op // not sent yet
}

func New(events *event.Manager, outbox Outbox) *SharedString {
	return &SharedString{events: events, outbox: outbox}
}

func (s *SharedString) GetText() string  { return s.text }
func (s *SharedString) Rev() int         { return s.rev }
func (s *SharedString) ClientID() string { return s.clientID }

// Pending returns the number of local ops not yet acknowledged.
func (s *SharedString) Pending() int { return len(s.inflight) + len(s.buffer) }

// SubscribeTextChanged registers handler for local and remote changes.
func (s *SharedString) SubscribeTextChanged(handler func(collab.ChangeNotification)) collab.Subscription {
	return s.events.Subscribe(event.TypeTextChanged, func(e event.Event) bool {
		if n, ok := e.Data.(collab.ChangeNotification); ok {
			handler(n)
		}
		return false
	})
}

func (s *SharedString) InsertText(text string, at int) error {
	if at < 0 || at > utils.RuneLen(s.text) {
		return fmt.Errorf("insert at %d of %d: %w", at, utils.RuneLen(s.text), ErrOutOfRange)
	}
	return s.local(&ot.Insert{Pos: at, Value: text})
}

func (s *SharedString) ReplaceText(text string, start, end int) error {
	if err := s.checkRange(start, end); err != nil {
		return err
	}
	return s.local(&ot.Delete{Pos: start, Len: end - start}, &ot.Insert{Pos: start, Value: text})
}

func (s *SharedString) RemoveText(start, end int) error {
	if err := s.checkRange(start, end); err != nil {
		return err
	}
	return s.local(&ot.Delete{Pos: start, Len: end - start})
}

func (s *SharedString) checkRange(start, end int) error {
	if n := utils.RuneLen(s.text); start < 0 || end > n || start > end {
		return fmt.Errorf("range [%d,%d) of %d: %w", start, end, n, ErrOutOfRange)
	}
	return nil
}

func (s *SharedString) local(ops ...ot.Op) error {
	if s.outbox == nil || !s.outbox.Connected() {
		return ErrDisconnected
	}
	text, err := ot.ApplyPatch(s.text, ops)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrOutOfRange)
	}
	s.text = text
	s.buffer = append(s.buffer, ops...)
	s.flush()
	s.events.Dispatch(event.TypeTextChanged, collab.ChangeNotification{
		IsLocal:           true,
		TransformPosition: ot.PatchTransform(ops),
	})
	return nil
}

// flush sends the buffer when nothing is in flight. A failed send keeps the
// ops buffered for the next attempt.
func (s *SharedString) flush() {
	if len(s.inflight) > 0 || len(s.buffer) == 0 || s.outbox == nil {
		return
	}
	if err := s.outbox.Send(protocol.Update(s.rev, ot.EncodeOps(s.buffer))); err != nil {
		logger.WarnTagf("sharedtext", "send update at rev %d: %v", s.rev, err)
		return
	}
	s.inflight, s.buffer = s.buffer, nil
}

// Receive applies a change broadcast by the server. Our own change
// acknowledges the in-flight patch.
func (s *SharedString) Receive(msg protocol.Message) error {
	if msg.Type != protocol.TypeChange {
		return fmt.Errorf("receive %q: %w", msg.Type, protocol.ErrUnknownType)
	}
	if msg.Rev != s.rev+1 {
		return fmt.Errorf("got rev %d at rev %d: %w", msg.Rev, s.rev, ErrRevision)
	}

	if msg.ClientID == s.clientID {
		if len(s.inflight) == 0 {
			return fmt.Errorf("acknowledgement for rev %d with nothing in flight: %w", msg.Rev, ErrRevision)
		}
		s.rev = msg.Rev
		s.inflight = nil
		s.flush()
		return nil
	}

	ops, err := ot.DecodeOps(msg.Ops)
	if err != nil {
		return fmt.Errorf("change rev %d: %w", msg.Rev, err)
	}
	var rebased []ot.Op
	s.inflight, rebased = ot.TransformPatch(s.inflight, ops)
	s.buffer, rebased = ot.TransformPatch(s.buffer, rebased)

	text, err := ot.ApplyPatch(s.text, rebased)
	if err != nil {
		return fmt.Errorf("apply rev %d: %w", msg.Rev, err)
	}
	s.text = text
	s.rev = msg.Rev
	logger.DebugTagf("sharedtext", "rev %d from %s: %v", msg.Rev, msg.ClientID, rebased)
	s.events.Dispatch(event.TypeTextChanged, collab.ChangeNotification{
		TransformPosition: ot.PatchTransform(rebased),
	})
	return nil
}

// Reset replaces the replica with a server snapshot after a join. Unacknowledged
// local ops are dropped. Positions are clamped to the new text.
func (s *SharedString) Reset(clientID string, rev int, text string) {
	if dropped := s.Pending(); dropped > 0 {
		logger.WarnTagf("sharedtext", "dropping %d unacknowledged ops on rejoin", dropped)
	}
	s.clientID = clientID
	s.rev = rev
	s.text = text
	s.inflight, s.buffer = nil, nil

	n := utils.RuneLen(text)
	s.events.Dispatch(event.TypeTextChanged, collab.ChangeNotification{
		TransformPosition: func(pos int) int { return utils.Clamp(pos, 0, n) },
	})
}
