package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/otpbite/internal/pkg/base32"
	"github.com/shandysiswandi/otpbite/internal/pkg/goerror"
)

type VerifyCodeInput struct {
	ID   string `json:"id" validate:"required,max=64"`
	Code string `json:"code" validate:"required,otpcode"`
}

type VerifyCodeOutput struct {
	Valid bool
	// Replayed is set when the code matched but its time step was already used.
	Replayed bool
}

// VerifyCode checks a user-supplied code for an account, accepting the
// configured number of adjacent time steps.
func (s *Usecase) VerifyCode(ctx context.Context, in VerifyCodeInput) (*VerifyCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if want := s.totp.Digits().Length(); len(in.Code) != want {
		return nil, goerror.NewInvalidInput(nil, "code", fmt.Sprintf("code must be %d digits", want))
	}

	acc, err := s.getAccount(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	key, err := base32.Decode(acc.Secret)
	if err != nil {
		slog.ErrorContext(ctx, "failed to decode account secret", "account_id", acc.ID, "error", err)
		return nil, goerror.NewBusinessWrap(err, failureMessage(err), goerror.CodeUnprocessable)
	}

	now := s.clock.Now()
	counter, valid, err := s.totp.Match(key, in.Code, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to validate code", "account_id", acc.ID, "error", err)
		return nil, goerror.NewBusinessWrap(err, failureMessage(err), goerror.CodeUnprocessable)
	}

	if valid && s.replay != nil {
		first, err := s.replay.Claim(ctx, acc.ID+":"+strconv.FormatUint(counter, 10), s.claimTTL(counter, now))
		if err != nil {
			slog.ErrorContext(ctx, "failed to claim code", "account_id", acc.ID, "error", err)
			return nil, goerror.NewServer(err)
		}

		if !first {
			slog.WarnContext(ctx, "code reused", "account_id", acc.ID, "counter", counter)
			out := &VerifyCodeOutput{Replayed: true}
			s.publishVerified(ctx, acc.ID, out, now)
			return out, nil
		}
	}

	slog.InfoContext(ctx, "code verified", "account_id", acc.ID, "valid", valid)

	out := &VerifyCodeOutput{Valid: valid}
	s.publishVerified(ctx, acc.ID, out, now)

	return out, nil
}

// publishVerified emits the audit event. A failed publish is logged and does
// not change the verification result.
func (s *Usecase) publishVerified(ctx context.Context, accountID string, out *VerifyCodeOutput, at time.Time) {
	if s.events == nil {
		return
	}

	if err := s.events.PublishCodeVerified(ctx, CodeVerifiedEvent{
		AccountID:  accountID,
		Valid:      out.Valid,
		Replayed:   out.Replayed,
		VerifiedAt: at,
	}); err != nil {
		slog.WarnContext(ctx, "failed to publish code verified event", "account_id", accountID, "error", err)
	}
}

// claimTTL keeps a claim until counter leaves the accepted window.
func (s *Usecase) claimTTL(counter uint64, now time.Time) time.Duration {
	period := uint64(s.totp.Period())
	//nolint:gosec // counter is derived from a non-negative unix time
	until := time.Unix(int64((counter+uint64(s.totp.Skew())+1)*period), 0)

	if ttl := until.Sub(now); ttl > 0 {
		return ttl
	}

	return time.Second
}
