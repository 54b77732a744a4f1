// Package auth owns the session lifecycle: password sign-in, opaque session
// tokens, the session-change stream, and the access gate for admin routes.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials indicates that the provided email or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrSessionNotFound indicates that the token does not match any session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
)

// User is the authenticated operator identity attached to a session.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Session is an opaque token plus its owner and expiry.
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Session-change stream events.
const (
	EventSignedIn  = "SIGNED_IN"
	EventSignedOut = "SIGNED_OUT"
)

// Change is one event on the session-change stream.
type Change struct {
	Event   string   `json:"event"`
	Session *Session `json:"session"` // nil on sign-out
}

// Authenticator is the port to the external auth service.
type Authenticator interface {
	// SignIn checks credentials and opens a new session.
	// Returns ErrInvalidCredentials on a rejected sign-in.
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// SignOut destroys the session identified by token.
	SignOut(ctx context.Context, token string) error
	// CurrentSession resolves a token to its live session.
	// Returns ErrSessionNotFound or ErrSessionExpired when it cannot.
	CurrentSession(ctx context.Context, token string) (*Session, error)
	// Changes subscribes to the session-change stream. The returned stop
	// function releases the subscription and is safe to call more than once;
	// the channel is closed once the subscription ends.
	Changes(ctx context.Context) (<-chan Change, func(), error)
}
