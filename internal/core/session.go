package core

import (
	"time"

	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/identity"
)

// SessionState is the authentication state of one connection.
type SessionState int

const (
	// StateConnected is a live connection that has not authenticated yet.
	StateConnected SessionState = iota
	// StateAuthenticated is a connection with a verified identity attached.
	StateAuthenticated
	// StateDisconnected is terminal; the session holds no resources anymore.
	StateDisconnected
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Session is one connection's authentication and identity context.
// State and Identity are owned by the hub goroutine after registration;
// the transport only reads from Events and Closed.
type Session struct {
	ID        string
	State     SessionState
	Identity  *identity.Identity
	CreatedAt time.Time
	Events    chan *Event

	// Closed is closed by the hub when the session is discarded, either by
	// unregistration or because its reply buffer overflowed.
	Closed chan struct{}
}

// NewSession constructs a session in the connected (unauthenticated) state.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		State:     StateConnected,
		CreatedAt: time.Now(),
		Events:    make(chan *Event, 32),
		Closed:    make(chan struct{}),
	}
}

// trySend queues an event for the session's writer. It reports whether the
// event fit in the buffer; broadcasts tolerate a false return, direct replies
// do not.
func (s *Session) trySend(ev *Event) bool {
	select {
	case s.Events <- ev:
		return true
	default:
		return false
	}
}
