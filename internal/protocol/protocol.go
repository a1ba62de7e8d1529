// Package protocol defines the JSON messages exchanged over the websocket
// between a client session and the server.
//
// Every message is a flat object with a "type" field. Operations travel in
// their ot encoding ("i,<pos>,<text>" and "d,<pos>,<len>").
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type names a message kind.
type Type string

const (
	TypeJoin     Type = "join"     // client -> server
	TypeWelcome  Type = "welcome"  // server -> client, reply to join
	TypeUpdate   Type = "update"   // client -> server
	TypeChange   Type = "change"   // server -> all clients of a document
	TypePresence Type = "presence" // server -> all clients of a document
	TypeError    Type = "error"    // server -> client
)

var ErrUnknownType = errors.New("unknown message type")

// Message is the single wire envelope. Only the fields of its Type are set.
type Message struct {
	Type Type `json:"type"`

	DocID    string   `json:"doc_id,omitempty"`
	UserName string   `json:"user_name,omitempty"`
	ClientID string   `json:"client_id,omitempty"`
	Rev      int      `json:"rev,omitempty"`
	BaseRev  int      `json:"base_rev,omitempty"`
	Ops      []string `json:"ops,omitempty"`
	Text     string   `json:"text,omitempty"`
	Users    []string `json:"users,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// Join asks to open docID. An empty docID creates a new document.
func Join(docID, userName string) Message {
	return Message{Type: TypeJoin, DocID: docID, UserName: userName}
}

func Welcome(docID, clientID string, rev int, text string) Message {
	return Message{Type: TypeWelcome, DocID: docID, ClientID: clientID, Rev: rev, Text: text}
}

// Update carries ops made against revision baseRev.
func Update(baseRev int, ops []string) Message {
	return Message{Type: TypeUpdate, BaseRev: baseRev, Ops: ops}
}

// Change announces that ops from clientID produced revision rev.
func Change(rev int, clientID string, ops []string) Message {
	return Message{Type: TypeChange, Rev: rev, ClientID: clientID, Ops: ops}
}

func Presence(users []string) Message {
	return Message{Type: TypePresence, Users: users}
}

func Error(format string, args ...interface{}) Message {
	return Message{Type: TypeError, Message: fmt.Sprintf(format, args...)}
}

// Validate checks that the fields required by m.Type are present.
func (m Message) Validate() error {
	switch m.Type {
	case TypeJoin, TypePresence:
		return nil
	case TypeWelcome:
		if m.DocID == "" || m.ClientID == "" {
			return fmt.Errorf("welcome without doc or client id")
		}
	case TypeUpdate:
		if len(m.Ops) == 0 {
			return fmt.Errorf("update without ops")
		}
	case TypeChange:
		if m.Rev <= 0 {
			return fmt.Errorf("change with revision %d", m.Rev)
		}
	case TypeError:
		if m.Message == "" {
			return fmt.Errorf("error without message")
		}
	default:
		return fmt.Errorf("%w %q", ErrUnknownType, m.Type)
	}
	return nil
}

// Encode marshals m.
func Encode(m Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// Decode unmarshals and validates a message.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// RemoteError is the error a client sees for a server "error" message.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "server: " + e.Message
}
