// Package identity is the user account and session provider: email/password
// and OAuth sign-in, opaque session tokens, and session change notifications.
package identity

import (
	"context"
	"errors"
	"sync"
)

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider"`
}

type Session struct {
	Token string `json:"access_token"`
	User  User   `json:"user"`
}

type EventType string

const (
	SignedIn  EventType = "SIGNED_IN"
	SignedOut EventType = "SIGNED_OUT"
)

type SessionEvent struct {
	Type   EventType
	UserID string
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrUnknownProvider    = errors.New("unknown oauth provider")
	ErrInvalidState       = errors.New("invalid or expired oauth state")
	ErrUnverifiedEmail    = errors.New("oauth email is not verified")
)

// Provider is what the authentication layer needs from an identity backend.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUpWithPassword(ctx context.Context, email, password, name string) (*Session, error)
	// SignInWithOAuth returns the provider URL the browser must be sent to.
	SignInWithOAuth(ctx context.Context, provider, redirectTo string) (string, error)
	// CompleteOAuth finishes the round trip and returns the redirect target saved earlier.
	CompleteOAuth(ctx context.Context, provider, state, code string) (*Session, string, error)
	// GetSession returns nil, nil when the token has no active session.
	GetSession(ctx context.Context, token string) (*Session, error)
	OnSessionChange(fn func(SessionEvent)) (unsubscribe func())
	SignOut(ctx context.Context, token string) error
}

// Listeners fans session events out to subscribers, synchronously and in
// subscription order.
type Listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(SessionEvent)
}

func (l *Listeners) Subscribe(fn func(SessionEvent)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = map[int]func(SessionEvent){}
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	}
}

func (l *Listeners) Emit(ev SessionEvent) {
	l.mu.Lock()
	fns := make([]func(SessionEvent), 0, len(l.fns))
	for i := 0; i < l.next; i++ {
		if fn, ok := l.fns[i]; ok {
			fns = append(fns, fn)
		}
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
