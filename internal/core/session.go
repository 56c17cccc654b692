package core

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/VoiceRelay/internal/domain"
)

// SessionID is the process-local routing address of a connection.
type SessionID int64

var ErrAlreadyAuthenticated = errors.New("session already authenticated")

// Session is the per-connection runtime state.
// It is not safe for concurrent use; the orchestrator serializes access.
type Session struct {
	id          SessionID
	conn        SignalConnection
	connectedAt time.Time

	identity      domain.Identity
	authenticated bool

	lastPongAt   time.Time
	awaitingPong bool
}

func NewSession(id SessionID, conn SignalConnection, now time.Time) *Session {
	return &Session{
		id:          id,
		conn:        conn,
		connectedAt: now,
		lastPongAt:  now,
	}
}

func (s *Session) ID() SessionID             { return s.id }
func (s *Session) Identity() domain.Identity { return s.identity }
func (s *Session) Authenticated() bool       { return s.authenticated }
func (s *Session) AwaitingPong() bool        { return s.awaitingPong }
func (s *Session) LastPongAt() time.Time     { return s.lastPongAt }
func (s *Session) ConnectedAt() time.Time    { return s.connectedAt }
func (s *Session) Signal() SignalConnection  { return s.conn }
func (s *Session) ExternalID() string        { return s.identity.ExternalID }
func (s *Session) Username() string          { return s.identity.Username }

// Authenticate promotes the session once; identity is immutable afterwards.
func (s *Session) Authenticate(id domain.Identity) error {
	if s.authenticated {
		return ErrAlreadyAuthenticated
	}
	s.identity = id
	s.authenticated = true
	return nil
}

// MarkPingSent arms the pong expectation.
func (s *Session) MarkPingSent() { s.awaitingPong = true }

// AcceptPong returns false for an unsolicited pong.
func (s *Session) AcceptPong(now time.Time) bool {
	if !s.awaitingPong {
		return false
	}
	s.awaitingPong = false
	s.lastPongAt = now
	return true
}

// Unresponsive reports whether no pong arrived within grace.
func (s *Session) Unresponsive(now time.Time, grace time.Duration) bool {
	return now.Sub(s.lastPongAt) > grace
}

func (s *Session) View() domain.UserView {
	return domain.UserView{
		ID:         int64(s.id),
		Username:   s.identity.Username,
		ProfileURL: s.identity.ProfileURL,
		AvatarURL:  s.identity.AvatarURL,
		Icon:       s.identity.Icon,
	}
}

// Send serializes v and enqueues it on the transport.
func (s *Session) Send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.conn.TrySend(b)
}

// SendFrame enqueues an already encoded message.
func (s *Session) SendFrame(f Frame) error {
	return s.conn.TrySend(f)
}

// Close terminates the transport. Implementations make it idempotent.
func (s *Session) Close() {
	s.conn.Close()
}
