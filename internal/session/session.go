// Package session connects a client to the server over a websocket, joins
// one document and keeps the link alive.
//
// Everything received is delivered in order on Events so the client loop can
// handle it alongside terminal input. Sends go through a per-connection
// writer goroutine and never block the caller.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bethropolis/collabmd/internal/config"
	"github.com/bethropolis/collabmd/internal/event"
	"github.com/bethropolis/collabmd/internal/logger"
	"github.com/bethropolis/collabmd/internal/protocol"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 75 * time.Second
	joinTimeout      = 10 * time.Second
	reconnectInitial = 250 * time.Millisecond
	sendBuffer       = 64
	eventBuffer      = 256
)

var (
	ErrNotConnected = errors.New("session not connected")
	ErrSendBlocked  = errors.New("send buffer full")
)

// Config describes where and as whom to join.
type Config struct {
	URL          string
	DocID        string // empty creates a new document
	UserName     string
	ReconnectMax time.Duration
}

// ConfigFrom builds a Config from the [session] settings. A missing user name
// is replaced by a generated one.
func ConfigFrom(cfg config.SessionConfig, docID string) Config {
	user := cfg.UserName
	if user == "" {
		user = "user-" + uuid.NewString()[:8]
	}
	return Config{
		URL:          cfg.ServerURL,
		DocID:        docID,
		UserName:     user,
		ReconnectMax: time.Duration(cfg.ReconnectMaxSeconds) * time.Second,
	}
}

// Kind tells which field of an Event is set.
type Kind int

const (
	KindMessage Kind = iota
	KindState
)

// Event is one item delivered to the client loop.
type Event struct {
	Kind    Kind
	Message protocol.Message
	State   event.ConnectionState
	Err     error
}

type link struct {
	ws        *websocket.Conn
	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (l *link) close() {
	l.closeOnce.Do(func() {
		close(l.done)
		l.ws.Close()
	})
}

type Session struct {
	cfg       Config
	dialer    *websocket.Dialer
	events    chan Event
	connected atomic.Bool

	mu       sync.Mutex
	link     *link
	docID    string
	clientID string
}

// Dial connects and joins, returning the server's welcome.
func Dial(ctx context.Context, cfg Config) (*Session, protocol.Message, error) {
	s := &Session{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		events: make(chan Event, eventBuffer),
		docID:  cfg.DocID,
	}
	welcome, err := s.connect(ctx)
	if err != nil {
		return nil, protocol.Message{}, err
	}
	return s, welcome, nil
}

func (s *Session) connect(ctx context.Context) (protocol.Message, error) {
	ws, _, err := s.dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return protocol.Message{}, fmt.Errorf("dial %s: %w", s.cfg.URL, err)
	}
	welcome, err := s.join(ws)
	if err != nil {
		ws.Close()
		return protocol.Message{}, err
	}

	l := &link{ws: ws, out: make(chan []byte, sendBuffer), done: make(chan struct{})}
	s.mu.Lock()
	s.link = l
	s.docID = welcome.DocID
	s.clientID = welcome.ClientID
	s.mu.Unlock()
	s.connected.Store(true)
	go s.writePump(l)

	logger.InfoTagf("session", "joined %s as %s (%s) at rev %d", welcome.DocID, s.cfg.UserName, welcome.ClientID, welcome.Rev)
	return welcome, nil
}

func (s *Session) join(ws *websocket.Conn) (protocol.Message, error) {
	data, err := protocol.Encode(protocol.Join(s.DocID(), s.cfg.UserName))
	if err != nil {
		return protocol.Message{}, err
	}
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return protocol.Message{}, fmt.Errorf("send join: %w", err)
	}

	ws.SetReadDeadline(time.Now().Add(joinTimeout))
	_, data, err = ws.ReadMessage()
	if err != nil {
		return protocol.Message{}, fmt.Errorf("await welcome: %w", err)
	}
	msg, err := protocol.Decode(data)
	if err != nil {
		return protocol.Message{}, err
	}
	switch msg.Type {
	case protocol.TypeWelcome:
		return msg, nil
	case protocol.TypeError:
		return protocol.Message{}, &protocol.RemoteError{Message: msg.Message}
	default:
		return protocol.Message{}, fmt.Errorf("expected welcome, got %s", msg.Type)
	}
}

func (s *Session) current() *link {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.link
}

// Events delivers messages and connection state changes in arrival order.
func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) Connected() bool { return s.connected.Load() }

func (s *Session) DocID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docID
}

func (s *Session) ClientID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientID
}

func (s *Session) UserName() string { return s.cfg.UserName }

// Send queues msg for the writer goroutine.
func (s *Session) Send(msg protocol.Message) error {
	l := s.current()
	if l == nil || !s.connected.Load() {
		return ErrNotConnected
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	select {
	case <-l.done:
		return ErrNotConnected
	default:
	}
	select {
	case l.out <- data:
		return nil
	default:
		return ErrSendBlocked
	}
}

// Run reads from the server until ctx is done, rejoining the same document
// with exponential backoff whenever the link drops. A rejoin is delivered as a
// welcome message followed by a Connected state.
func (s *Session) Run(ctx context.Context) error {
	for {
		l := s.current()
		err := s.readPump(ctx, l)
		s.connected.Store(false)
		l.close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.WarnTagf("session", "link lost: %v", err)
		s.emit(ctx, Event{Kind: KindState, State: event.Disconnected, Err: err})

		welcome, err := s.reconnect(ctx)
		if err != nil {
			return err
		}
		s.emit(ctx, Event{Kind: KindMessage, Message: welcome})
		s.emit(ctx, Event{Kind: KindState, State: event.Connected})
	}
}

func (s *Session) reconnect(ctx context.Context) (protocol.Message, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = reconnectInitial
	if s.cfg.ReconnectMax > 0 {
		b.MaxInterval = s.cfg.ReconnectMax
	}
	b.MaxElapsedTime = 0
	b.Reset()

	var welcome protocol.Message
	attempt := func() error {
		s.emit(ctx, Event{Kind: KindState, State: event.Connecting})
		var err error
		welcome, err = s.connect(ctx)
		return err
	}
	notify := func(err error, wait time.Duration) {
		logger.WarnTagf("session", "reconnect failed: %v (next attempt in %v)", err, wait)
	}
	if err := backoff.RetryNotify(attempt, backoff.WithContext(b, ctx), notify); err != nil {
		if ctx.Err() != nil {
			return protocol.Message{}, ctx.Err()
		}
		return protocol.Message{}, err
	}
	return welcome, nil
}

func (s *Session) emit(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

func (s *Session) readPump(ctx context.Context, l *link) error {
	stop := context.AfterFunc(ctx, l.close)
	defer stop()

	l.ws.SetReadDeadline(time.Now().Add(pongWait))
	l.ws.SetPingHandler(func(appData string) error {
		l.ws.SetReadDeadline(time.Now().Add(pongWait))
		return l.ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	for {
		_, data, err := l.ws.ReadMessage()
		if err != nil {
			return err
		}
		l.ws.SetReadDeadline(time.Now().Add(pongWait))
		msg, err := protocol.Decode(data)
		if err != nil {
			logger.WarnTagf("session", "dropping message: %v", err)
			continue
		}
		s.emit(ctx, Event{Kind: KindMessage, Message: msg})
	}
}

func (s *Session) writePump(l *link) {
	for {
		select {
		case data := <-l.out:
			l.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := l.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.WarnTagf("session", "write: %v", err)
				l.close()
				return
			}
		case <-l.done:
			return
		}
	}
}

// Rejoin drops the current link. Run notices, reports Disconnected and joins
// the document again, delivering a fresh welcome.
func (s *Session) Rejoin() {
	if l := s.current(); l != nil {
		l.close()
	}
}

// Close says goodbye to the server and drops the link. Run returns once its context is cancelled.
func (s *Session) Close() error {
	s.connected.Store(false)
	l := s.current()
	if l == nil {
		return nil
	}
	err := l.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	l.close()
	return err
}
