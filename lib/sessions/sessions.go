package sessions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"sync"
	"time"

	"kuasap-backend/lib/scrapers/kuasap"
	"kuasap-backend/lib/telemetry"

	"go.opentelemetry.io/otel/metric"
)

var (
	ErrUnknownToken   = errors.New("sessions: unknown token")
	ErrTokenCollision = errors.New("sessions: token collision")
)

// Rounds is the number of times the seed is rehashed after the first digest.
const Rounds = 48

// TokenLength is the length of every issued token.
const TokenLength = sha256.Size * 2

var tracer = telemetry.Tracer("kuasap.lib.sessions")
var meter = telemetry.Meter("kuasap.lib.sessions")

type Session struct {
	Username string
	Client   *kuasap.Client
	IssuedAt time.Time
}

// Registry maps issued tokens to live portal sessions. Tokens are lookup
// keys only, nothing can be recovered from their contents.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
	lastSalt int64
	now      func() time.Time
}

func NewRegistry() *Registry {
	r := &Registry{
		sessions: make(map[string]Session),
		now:      time.Now,
	}

	gauge, err := meter.Int64ObservableGauge(
		"session_count",
		metric.WithDescription("Number of live portal sessions."),
	)
	if err == nil {
		_, _ = meter.RegisterCallback(
			func(_ context.Context, o metric.Observer) error {
				o.ObserveInt64(gauge, int64(r.Len()))
				return nil
			},
			gauge,
		)
	}
	return r
}

// Token derives a token from a username and salt: the sha256 hex digest of
// username+salt rehashed Rounds more times.
func Token(username string, salt int64) string {
	sum := sha256.Sum256([]byte(username + strconv.FormatInt(salt, 10)))
	result := hex.EncodeToString(sum[:])
	for range Rounds {
		sum = sha256.Sum256([]byte(result))
		result = hex.EncodeToString(sum[:])
	}
	return result
}

// nextSalt must be called with mu held. Salts strictly increase even when
// the clock does not.
func (r *Registry) nextSalt() int64 {
	salt := r.now().UnixNano()
	if salt <= r.lastSalt {
		salt = r.lastSalt + 1
	}
	r.lastSalt = salt
	return salt
}

// Issue registers client under a fresh token for username.
func (r *Registry) Issue(ctx context.Context, username string, client *kuasap.Client) (string, error) {
	_, span := tracer.Start(ctx, "Issue")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	token := Token(username, r.nextSalt())
	_, exists := r.sessions[token]
	if exists {
		span.RecordError(ErrTokenCollision)
		return "", ErrTokenCollision
	}
	r.sessions[token] = Session{
		Username: username,
		Client:   client,
		IssuedAt: r.now(),
	}
	return token, nil
}

func (r *Registry) Resolve(token string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[token]
	if !ok {
		return Session{}, ErrUnknownToken
	}
	return session, nil
}

func (r *Registry) IsValid(token string) bool {
	_, err := r.Resolve(token)
	return err == nil
}

// Revoke removes a token, it reports whether the token existed.
func (r *Registry) Revoke(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[token]
	delete(r.sessions, token)
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// RevokeIf removes every session for which fn returns true and returns the
// number removed.
func (r *Registry) RevokeIf(fn func(token string, session Session) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for token, session := range r.sessions {
		if fn(token, session) {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed
}
