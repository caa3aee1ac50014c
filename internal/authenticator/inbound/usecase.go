package inbound

import (
	"context"

	"github.com/shandysiswandi/otpbite/internal/authenticator/entity"
	"github.com/shandysiswandi/otpbite/internal/authenticator/usecase"
)

type ucStream interface {
	StreamCodes(ctx context.Context) <-chan entity.Snapshot
}

type uc interface {
	ucStream

	ListAccounts(ctx context.Context) ([]entity.AccountInfo, error)
	ListCodes(ctx context.Context) (*entity.Snapshot, error)
	GetCode(ctx context.Context, in usecase.GetCodeInput) (*entity.AccountCode, error)
	VerifyCode(ctx context.Context, in usecase.VerifyCodeInput) (*usecase.VerifyCodeOutput, error)
}
