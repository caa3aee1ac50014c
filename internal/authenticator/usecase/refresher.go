package usecase

import (
	"context"
	"log/slog"
	"time"
)

// RunRefresher publishes a fresh snapshot to every stream subscriber at the
// configured interval until ctx is done. Ticks with no subscribers are skipped.
// Open streams are closed when it returns.
func (s *Usecase) RunRefresher(ctx context.Context) error {
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()
	defer s.closeStreams(context.WithoutCancel(ctx))

	slog.InfoContext(ctx, "code refresher started", "interval", s.refreshInterval.String())

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "code refresher stopped")
			return ctx.Err()

		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Usecase) tick(ctx context.Context) {
	if s.subscriberCount() == 0 {
		return
	}

	ctx, span := s.startSpan(ctx, "RefreshCodes")
	defer span.End()

	snap, err := s.snapshot(ctx, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to refresh codes", "error", err)
		return
	}

	s.publish(ctx, *snap)
}
