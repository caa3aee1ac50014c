package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/otpbite/internal/authenticator/entity"
	"github.com/shandysiswandi/otpbite/internal/pkg/clock"
	"github.com/shandysiswandi/otpbite/internal/pkg/config"
	"github.com/shandysiswandi/otpbite/internal/pkg/instrument"
	"github.com/shandysiswandi/otpbite/internal/pkg/otp"
	"github.com/shandysiswandi/otpbite/internal/pkg/replay"
	"github.com/shandysiswandi/otpbite/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	keyRefreshInterval   = "modules.authenticator.refresh_interval_seconds"
	keyExpiringThreshold = "modules.authenticator.expiring_threshold_seconds"

	defaultRefreshInterval   = time.Second
	defaultExpiringThreshold = 5
)

type repoAccount interface {
	List(ctx context.Context) ([]entity.Account, error)
	Get(ctx context.Context, id string) (*entity.Account, error)
}

// CodeVerifiedEvent records the outcome of one verification attempt.
type CodeVerifiedEvent struct {
	AccountID  string
	Valid      bool
	Replayed   bool
	VerifiedAt time.Time
}

type repoMessaging interface {
	PublishCodeVerified(ctx context.Context, ev CodeVerifiedEvent) error
}

type Usecase struct {
	repo      repoAccount
	totp      otp.OTP
	clock     clock.Clocker
	validator validator.Validator
	replay    replay.Guard
	events    repoMessaging
	ins       instrument.Instrumentation
	metrics   metrics

	refreshInterval   time.Duration
	expiringThreshold uint32

	streamMu    sync.RWMutex
	streams     map[*subscriber]struct{}
	streamsDone bool
}

type Dependency struct {
	Repo       repoAccount
	TOTP       otp.OTP
	Config     config.Config
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
	// Replay rejects a second use of an accepted code. Nil disables the check.
	Replay replay.Guard
	// Events receives verification outcomes. Optional.
	Events repoMessaging
}

func NewAuthenticator(dep Dependency) *Usecase {
	s := &Usecase{
		repo:              dep.Repo,
		totp:              dep.TOTP,
		clock:             dep.Clock,
		validator:         dep.Validator,
		replay:            dep.Replay,
		events:            dep.Events,
		ins:               dep.Instrument,
		refreshInterval:   defaultRefreshInterval,
		expiringThreshold: defaultExpiringThreshold,
		streams:           make(map[*subscriber]struct{}),
	}

	if dep.Config != nil {
		if d := dep.Config.GetSecond(keyRefreshInterval); d > 0 {
			s.refreshInterval = d
		}
		if dep.Config.IsSet(keyExpiringThreshold) {
			s.expiringThreshold = dep.Config.GetUint32(keyExpiringThreshold)
		}
	}

	s.metrics = newMetrics(s.ins.Meter("authenticator.usecase"))

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("authenticator.usecase").Start(ctx, name)
}

type metrics struct {
	generated   metric.Int64Counter
	failed      metric.Int64Counter
	subscribers metric.Int64UpDownCounter
}

func newMetrics(meter metric.Meter) metrics {
	var m metrics
	var err error

	m.generated, err = meter.Int64Counter("authenticator.codes.generated",
		metric.WithDescription("Number of one-time codes generated"))
	if err != nil {
		slog.Error("failed to create generated codes counter", "error", err)
	}

	m.failed, err = meter.Int64Counter("authenticator.codes.failed",
		metric.WithDescription("Number of accounts whose code could not be generated"))
	if err != nil {
		slog.Error("failed to create failed codes counter", "error", err)
	}

	m.subscribers, err = meter.Int64UpDownCounter("authenticator.stream.subscribers",
		metric.WithDescription("Number of open code streams"))
	if err != nil {
		slog.Error("failed to create stream subscribers counter", "error", err)
	}

	return m
}

func (m metrics) count(ctx context.Context, c metric.Int64Counter, accountID string) {
	if c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attribute.String("account_id", accountID)))
	}
}

// codeFor derives one account's code and window from the sampled time at.
func (s *Usecase) codeFor(ctx context.Context, acc entity.Account, at time.Time) (entity.AccountCode, error) {
	out := entity.AccountCode{
		AccountID: acc.ID,
		Name:      acc.Name,
		Issuer:    acc.Issuer,
		Period:    s.totp.Period(),
	}

	code, err := s.totp.GenerateSecret(acc.Secret, at)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate code", "account_id", acc.ID, "error", err)
		s.metrics.count(ctx, s.metrics.failed, acc.ID)
		out.Error = failureMessage(err)
		return out, err
	}

	s.metrics.count(ctx, s.metrics.generated, acc.ID)

	out.Code = code.Value
	out.SecondsRemaining = code.SecondsRemaining
	out.Progress = float64(code.SecondsRemaining) / float64(code.Period)
	out.Expiring = code.SecondsRemaining <= s.expiringThreshold

	return out, nil
}

// failureMessage is the client-facing reason a code is missing.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, otp.ErrInvalidSecretEncoding):
		return "Account secret is not valid Base32"
	case errors.Is(err, otp.ErrDegenerateKey):
		return "Account secret is too short"
	case errors.Is(err, otp.ErrInvalidTime):
		return "Clock is before the Unix epoch"
	default:
		return "Code could not be generated"
	}
}
