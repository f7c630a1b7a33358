package ap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kuasap-backend/lib/sessions"
	"kuasap-backend/lib/timezone"

	"github.com/robfig/cron/v3"
)

// evictIdle revokes every session unused for at least the idle timeout. A
// session is used by every portal response and by every Session or Query
// call, cache hits included.
func (s *Service) evictIdle(now time.Time) int {
	return s.registry.RevokeIf(func(_ string, session sessions.Session) bool {
		return now.Sub(session.Client.LastUsed()) >= s.opts.IdleTimeout
	})
}

// Start runs the idle session eviction job until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	cronner := cron.New(
		cron.WithLogger(cronLogger{}),
		cron.WithLocation(timezone.Location),
	)
	_, err := cronner.AddFunc(s.opts.EvictSchedule, func() {
		removed := s.evictIdle(s.now())
		if removed > 0 {
			slog.InfoContext(ctx, "evicted idle sessions", "count", removed)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule eviction: %w", err)
	}

	slog.InfoContext(ctx, "start daemon", "task", "evict idle sessions", "schedule", s.opts.EvictSchedule)
	cronner.Start()
	go func() {
		<-ctx.Done()
		<-cronner.Stop().Done()
	}()
	return nil
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(fmt.Sprintf("cron: %s", msg), keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Warn(fmt.Sprintf("cron: %s", msg), append(keysAndValues, "err", err)...)
}
