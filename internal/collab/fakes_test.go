package collab_test

import (
	"errors"

	"github.com/bethropolis/collabmd/internal/collab"
	"github.com/bethropolis/collabmd/internal/ot"
	"github.com/bethropolis/collabmd/internal/types"
	"github.com/bethropolis/collabmd/internal/utils"
)

var errOffline = errors.New("offline")

// memDoc is an in-process shared sequence. Remote edits are injected with remote.
type memDoc struct {
	text     string
	offline  bool
	handlers map[int]func(collab.ChangeNotification)
	nextID   int
	calls    []string
}

func newMemDoc(text string) *memDoc {
	return &memDoc{text: text, handlers: map[int]func(collab.ChangeNotification){}}
}

type memSub struct {
	doc *memDoc
	id  int
}

func (s memSub) Unsubscribe() bool {
	if _, ok := s.doc.handlers[s.id]; !ok {
		return false
	}
	delete(s.doc.handlers, s.id)
	return true
}

func (d *memDoc) SubscribeTextChanged(h func(collab.ChangeNotification)) collab.Subscription {
	d.nextID++
	d.handlers[d.nextID] = h
	return memSub{doc: d, id: d.nextID}
}

func (d *memDoc) notify(n collab.ChangeNotification) {
	for _, h := range d.handlers {
		h(n)
	}
}

func (d *memDoc) GetText() string { return d.text }

func (d *memDoc) local(op ot.Op, call string) error {
	d.calls = append(d.calls, call)
	if d.offline {
		return errOffline
	}
	out, err := op.Apply(d.text)
	if err != nil {
		return err
	}
	d.text = out
	d.notify(collab.ChangeNotification{IsLocal: true, TransformPosition: ot.PatchTransform([]ot.Op{op})})
	return nil
}

func (d *memDoc) InsertText(text string, at int) error {
	return d.local(&ot.Insert{Pos: at, Value: text}, "insert")
}

func (d *memDoc) RemoveText(start, end int) error {
	return d.local(&ot.Delete{Pos: start, Len: end - start}, "remove")
}

func (d *memDoc) ReplaceText(text string, start, end int) error {
	d.calls = append(d.calls, "replace")
	if d.offline {
		return errOffline
	}
	ops := []ot.Op{&ot.Delete{Pos: start, Len: end - start}, &ot.Insert{Pos: start, Value: text}}
	out, err := ot.ApplyPatch(d.text, ops)
	if err != nil {
		return err
	}
	d.text = out
	d.notify(collab.ChangeNotification{IsLocal: true, TransformPosition: ot.PatchTransform(ops)})
	return nil
}

func (d *memDoc) remote(ops ...ot.Op) {
	out, err := ot.ApplyPatch(d.text, ops)
	if err != nil {
		panic(err)
	}
	d.text = out
	d.notify(collab.ChangeNotification{TransformPosition: ot.PatchTransform(ops)})
}

// fakeSurface behaves like a textarea: SetText keeps the selection when it fits.
type fakeSurface struct {
	text string
	sel  types.SelectionRange
	sets int
}

func (s *fakeSurface) Text() string                        { return s.text }
func (s *fakeSurface) Selection() types.SelectionRange     { return s.sel }
func (s *fakeSurface) SetSelection(r types.SelectionRange) { s.sel, _ = r.Clamp(utils.RuneLen(s.text)) }

func (s *fakeSurface) SetText(text string) {
	s.sets++
	s.text = text
	s.sel, _ = s.sel.Clamp(utils.RuneLen(text))
}

// typeText simulates the user editing: the surface content and caret change without notifying anyone.
func (s *fakeSurface) typeText(text string, caret int) {
	s.text = text
	s.sel = types.Caret(caret)
}
