package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpbite/internal/authenticator/entity"
	"github.com/shandysiswandi/otpbite/internal/pkg/goerror"
)

type GetCodeInput struct {
	ID string `json:"id" validate:"required,max=64"`
}

func (s *Usecase) GetCode(ctx context.Context, in GetCodeInput) (*entity.AccountCode, error) {
	ctx, span := s.startSpan(ctx, "GetCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	acc, err := s.getAccount(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	code, err := s.codeFor(ctx, *acc, s.clock.Now())
	if err != nil {
		return nil, goerror.NewBusinessWrap(err, code.Error, goerror.CodeUnprocessable)
	}

	return &code, nil
}

func (s *Usecase) getAccount(ctx context.Context, id string) (*entity.Account, error) {
	acc, err := s.repo.Get(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("Account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account", "account_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	return acc, nil
}
