package ap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"kuasap-backend/lib/querycache"
	"kuasap-backend/lib/scrapers/kuasap"
	"kuasap-backend/lib/sessions"
	"kuasap-backend/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	DefaultCacheTTL      = 10 * time.Minute
	DefaultIdleTimeout   = 15 * time.Minute
	DefaultEvictSchedule = "@every 1m"
	DefaultSemesterQuery = "ag304_01"
	DefaultSemesterYears = 5
)

type Credentials struct {
	Username string
	Password string
}

type Options struct {
	Client kuasap.ClientOptions
	// CacheTTL is how long query results are reused.
	CacheTTL time.Duration
	// IdleTimeout is how long a session may go unused before it is revoked.
	IdleTimeout   time.Duration
	EvictSchedule string
	// SemesterAccount is used to look up the semester list, without it the
	// list is derived from the calendar.
	SemesterAccount Credentials
	SemesterQuery   string
	SemesterYears   int
}

func (o Options) withDefaults() Options {
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}
	if o.EvictSchedule == "" {
		o.EvictSchedule = DefaultEvictSchedule
	}
	if o.SemesterQuery == "" {
		o.SemesterQuery = DefaultSemesterQuery
	}
	if o.SemesterYears <= 0 {
		o.SemesterYears = DefaultSemesterYears
	}
	return o
}

// Service bridges stateless callers to portal sessions: it logs users in,
// hands out tokens and runs cached queries on their behalf.
type Service struct {
	registry *sessions.Registry
	cache    *querycache.Cache[[]byte]
	opts     Options
	now      func() time.Time

	logins metric.Int64Counter

	semesterLock  sync.Mutex
	semesterToken string
}

func NewService(registry *sessions.Registry, cache *querycache.Cache[[]byte], opts Options) *Service {
	logins, _ := meter.Int64Counter(
		"logins",
		metric.WithDescription("Number of login attempts by outcome."),
	)
	return &Service{
		registry: registry,
		cache:    cache,
		opts:     opts.withDefaults(),
		now:      timezone.Now,
		logins:   logins,
	}
}

// Login authenticates against the portal and returns a token bound to the
// new session. Rejected credentials return kuasap.ErrAuthFailed and register
// nothing.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	client, err := kuasap.NewClient(s.opts.Client)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create client")
		return "", err
	}
	ok, err := client.Login(ctx, username, password)
	if err != nil {
		s.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error")))
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to login")
		return "", err
	}
	if !ok {
		s.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "rejected")))
		span.SetStatus(codes.Error, "credentials rejected")
		return "", kuasap.ErrAuthFailed
	}
	s.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "ok")))

	token, err := s.registry.Issue(ctx, username, client)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to issue token")
		slog.ErrorContext(ctx, "failed to issue token", "username", username, "err", err)
		return "", err
	}
	slog.DebugContext(ctx, "issued token", "username", username, "client_id", client.ID)
	return token, nil
}

// Session returns the session a token resolves to and counts as a use of
// it for idle eviction.
func (s *Service) Session(token string) (sessions.Session, error) {
	session, err := s.registry.Resolve(token)
	if err != nil {
		return sessions.Session{}, err
	}
	session.Client.Touch()
	return session, nil
}

// Query runs a portal query for the session behind token, results are
// cached per user, query id and arguments.
func (s *Service) Query(ctx context.Context, token, qid string, args map[string]string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Query")
	defer span.End()

	span.SetAttributes(attribute.String("qid", qid))

	session, err := s.Session(token)
	if err != nil {
		span.SetStatus(codes.Error, "unknown token")
		return nil, err
	}
	err = session.Client.ValidateQueryId(qid)
	if err != nil {
		span.SetStatus(codes.Error, "invalid query id")
		return nil, err
	}

	key := querycache.Key(session.Username, qid, args)
	payload, err := s.cache.GetOrCompute(ctx, key, s.opts.CacheTTL, func(ctx context.Context) ([]byte, error) {
		return session.Client.Query(ctx, qid, args)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query")
		return nil, fmt.Errorf("query %s: %w", qid, err)
	}
	return payload, nil
}

func (s *Service) IsValid(token string) bool {
	return s.registry.IsValid(token)
}

// Logout revokes a token, it reports whether the token was live.
func (s *Service) Logout(token string) bool {
	return s.registry.Revoke(token)
}

// IdleTimeout is how long an unused token stays valid.
func (s *Service) IdleTimeout() time.Duration {
	return s.opts.IdleTimeout
}
