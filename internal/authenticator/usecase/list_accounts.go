package usecase

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpbite/internal/authenticator/entity"
	"github.com/shandysiswandi/otpbite/internal/pkg/goerror"
)

// ListAccounts returns the enrolled accounts without their secrets.
func (s *Usecase) ListAccounts(ctx context.Context) ([]entity.AccountInfo, error) {
	ctx, span := s.startSpan(ctx, "ListAccounts")
	defer span.End()

	accounts, err := s.repo.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list accounts", "error", err)
		return nil, goerror.NewServer(err)
	}

	return lo.Map(accounts, func(a entity.Account, _ int) entity.AccountInfo {
		return a.Info()
	}), nil
}
