package auth

import (
	"context"
	"log/slog"
	"sync"
)

// Manager owns the current authentication state. It registers exactly one
// long-lived subscription to the session-change stream for its whole
// lifetime, applies every event last-write-wins, and fails open to
// logged-out on any resolution error: a broken auth backend renders the
// operator logged out, it never surfaces as a hard failure.
type Manager struct {
	auth   Authenticator
	logger *slog.Logger

	mu      sync.Mutex
	session *Session
	loading bool

	stop func()
	done chan struct{}
	once sync.Once
}

// NewManager returns an unstarted Manager. State reads report loading=true
// until Start has finished the initial resolution.
func NewManager(auth Authenticator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{auth: auth, logger: logger, loading: true, done: make(chan struct{})}
}

// Start subscribes to the session-change stream and completes the initial
// resolution. It fails open: on subscription failure the manager comes up
// logged out and reports the error, but stays usable for per-request
// resolution.
func (m *Manager) Start(ctx context.Context) error {
	changes, stop, err := m.auth.Changes(ctx)

	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()

	if err != nil {
		close(m.done)
		m.logger.Warn("session stream unavailable, starting logged out", "err", err)
		return err
	}

	m.stop = stop
	go func() {
		defer close(m.done)
		for c := range changes {
			m.apply(c)
		}
	}()
	return nil
}

// Close releases the stream subscription. Safe to call more than once; the
// release itself happens exactly once.
func (m *Manager) Close() {
	m.once.Do(func() {
		if m.stop != nil {
			m.stop()
		}
		<-m.done
	})
}

// Current returns the present session state. session is nil when logged out.
func (m *Manager) Current() (user *User, session *Session, loading bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		u := m.session.User
		user = &u
	}
	return user, m.session, m.loading
}

// Loading reports whether the initial resolution is still in progress.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// SignIn delegates to the authenticator. On success the new session becomes
// the current state; on failure the previous state is left untouched.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	sess, err := m.auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.session = sess
	m.mu.Unlock()
	return sess, nil
}

// SignOut destroys the session for token and clears the current state when
// it was the one signed out.
func (m *Manager) SignOut(ctx context.Context, token string) error {
	if err := m.auth.SignOut(ctx, token); err != nil {
		return err
	}

	m.mu.Lock()
	if m.session != nil && m.session.Token == token {
		m.session = nil
	}
	m.mu.Unlock()
	return nil
}

// Resolve maps a request token to its session, or nil when the caller is not
// authenticated. Resolution errors are logged and treated as logged out.
func (m *Manager) Resolve(ctx context.Context, token string) *Session {
	if token == "" {
		return nil
	}

	m.mu.Lock()
	if m.session != nil && m.session.Token == token {
		sess := *m.session
		m.mu.Unlock()
		return &sess
	}
	m.mu.Unlock()

	sess, err := m.auth.CurrentSession(ctx, token)
	if err != nil {
		if err != ErrSessionNotFound && err != ErrSessionExpired {
			m.logger.Warn("session resolution failed, treating as logged out", "err", err)
		}
		return nil
	}
	return sess
}

// apply overwrites the state with a stream event, last-write-wins.
func (m *Manager) apply(c Change) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch c.Event {
	case EventSignedIn:
		m.session = c.Session
	case EventSignedOut:
		m.session = nil
	default:
		m.logger.Warn("unknown session change event", "event", c.Event)
	}
}
