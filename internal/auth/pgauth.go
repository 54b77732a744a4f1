package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// sessionChannel is the Redis Pub/Sub channel carrying session-change events,
// so every subscriber observes sign-ins and sign-outs from any instance.
const sessionChannel = "EVENT_SESSION_CHANGED"

// PGAuthenticator implements Authenticator over PostgreSQL (admins and
// sessions tables) and Redis (session-change stream).
type PGAuthenticator struct {
	pool   *pgxpool.Pool
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewPGAuthenticator returns an Authenticator issuing sessions valid for ttl.
func NewPGAuthenticator(pool *pgxpool.Pool, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *PGAuthenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &PGAuthenticator{pool: pool, rdb: rdb, ttl: ttl, logger: logger}
}

// SignIn checks credentials against the admins table and opens a session.
func (a *PGAuthenticator) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var (
		user User
		hash string
	)
	err := a.pool.QueryRow(ctx,
		`SELECT id, email, password_hash FROM admins WHERE email = $1`, email,
	).Scan(&user.ID, &user.Email, &hash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	sess := &Session{
		Token:     uuid.NewString(),
		User:      user,
		ExpiresAt: time.Now().Add(a.ttl),
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO sessions (token, admin_id, expires_at) VALUES ($1, $2, $3)`,
		sess.Token, user.ID, sess.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	a.publish(ctx, Change{Event: EventSignedIn, Session: sess})
	return sess, nil
}

// SignOut destroys the session identified by token.
func (a *PGAuthenticator) SignOut(ctx context.Context, token string) error {
	tag, err := a.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() > 0 {
		a.publish(ctx, Change{Event: EventSignedOut})
	}
	return nil
}

// CurrentSession resolves a token to its live session. An expired session is
// deleted on sight.
func (a *PGAuthenticator) CurrentSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	sess := &Session{Token: token}
	err := a.pool.QueryRow(ctx,
		`SELECT s.expires_at, ad.id, ad.email
		 FROM sessions s
		 JOIN admins ad ON ad.id = s.admin_id
		 WHERE s.token = $1`, token,
	).Scan(&sess.ExpiresAt, &sess.User.ID, &sess.User.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	if time.Now().After(sess.ExpiresAt) {
		if _, err := a.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
			a.logger.Warn("expired session cleanup failed", "err", err)
		}
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// Changes subscribes to the Redis session-change channel.
func (a *PGAuthenticator) Changes(ctx context.Context) (<-chan Change, func(), error) {
	pubsub := a.rdb.Subscribe(ctx, sessionChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", sessionChannel, err)
	}

	out := make(chan Change)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var c Change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				a.logger.Warn("malformed session change event", "err", err)
				continue
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			if err := pubsub.Close(); err != nil {
				a.logger.Warn("session stream close failed", "err", err)
			}
		})
	}
	return out, stop, nil
}

// DeleteExpired purges sessions past their expiry. Run periodically by the
// scheduler.
func (a *PGAuthenticator) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := a.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// publish emits a session-change event. Non-fatal: a missed event only delays
// observers until their next resolution.
func (a *PGAuthenticator) publish(ctx context.Context, c Change) {
	payload, _ := json.Marshal(c)
	if err := a.rdb.Publish(ctx, sessionChannel, payload).Err(); err != nil {
		a.logger.Warn("publish session change failed", "event", c.Event, "err", err)
	}
}
