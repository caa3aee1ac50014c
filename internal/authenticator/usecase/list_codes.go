package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpbite/internal/authenticator/entity"
	"github.com/shandysiswandi/otpbite/internal/pkg/goerror"
)

// ListCodes returns the current code of every account. The clock is read once
// and every entry is derived from that instant.
func (s *Usecase) ListCodes(ctx context.Context) (*entity.Snapshot, error) {
	ctx, span := s.startSpan(ctx, "ListCodes")
	defer span.End()

	return s.snapshot(ctx, s.clock.Now())
}

func (s *Usecase) snapshot(ctx context.Context, at time.Time) (*entity.Snapshot, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list accounts", "error", err)
		return nil, goerror.NewServer(err)
	}

	codes := make([]entity.AccountCode, 0, len(accounts))
	for _, acc := range accounts {
		//nolint:errcheck // the failure is carried in the entry
		code, _ := s.codeFor(ctx, acc, at)
		codes = append(codes, code)
	}

	return &entity.Snapshot{Timestamp: at.Truncate(time.Second), Codes: codes}, nil
}
