package authenticator

import (
	"context"
	"errors"
	"fmt"

	libOTP "github.com/pquerna/otp"
	"github.com/shandysiswandi/otpbite/internal/authenticator/inbound"
	"github.com/shandysiswandi/otpbite/internal/authenticator/outbound/mq"
	"github.com/shandysiswandi/otpbite/internal/authenticator/outbound/store"
	"github.com/shandysiswandi/otpbite/internal/authenticator/usecase"
	"github.com/shandysiswandi/otpbite/internal/pkg/clock"
	"github.com/shandysiswandi/otpbite/internal/pkg/config"
	"github.com/shandysiswandi/otpbite/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpbite/internal/pkg/instrument"
	"github.com/shandysiswandi/otpbite/internal/pkg/messaging"
	"github.com/shandysiswandi/otpbite/internal/pkg/otp"
	"github.com/shandysiswandi/otpbite/internal/pkg/replay"
	"github.com/shandysiswandi/otpbite/internal/pkg/router"
	"github.com/shandysiswandi/otpbite/internal/pkg/validator"
)

const (
	keyPeriod       = "modules.authenticator.period"
	keyDigits       = "modules.authenticator.digits"
	keySkew         = "modules.authenticator.skew"
	keyMinKeyLength = "modules.authenticator.min_key_length"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Replay     replay.Guard
	Messaging  messaging.Publisher
}

// New loads the accounts, registers the HTTP endpoints and starts the code
// refresher. The refresher and the config watch stop when dep.Ctx is done.
func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	totp, err := otp.NewTOTP(otp.Params{
		Period:       dep.Config.GetUint32(keyPeriod),
		Digits:       libOTP.Digits(dep.Config.GetInt(keyDigits)),
		Skew:         dep.Config.GetUint(keySkew),
		MinKeyLength: dep.Config.GetInt(keyMinKeyLength),
	})
	if err != nil {
		return fmt.Errorf("authenticator totp: %w", err)
	}

	accounts := store.New(dep.Config, dep.Validator)
	if err := accounts.Reload(dep.Ctx); err != nil {
		return err
	}
	accounts.Watch(dep.Ctx)

	ucDep := usecase.Dependency{
		Repo:       accounts,
		TOTP:       totp,
		Config:     dep.Config,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
		Replay:     dep.Replay,
	}
	if dep.Messaging != nil {
		ucDep.Events = mq.NewMessaging(dep.Messaging, dep.Instrument)
	}

	uc := usecase.NewAuthenticator(ucDep)

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	if !dep.Goroutine.Go(dep.Ctx, "authenticator.refresher", uc.RunRefresher) {
		return errors.New("authenticator: refresher not started")
	}

	return nil
}
