package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpbite/internal/authenticator"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.authenticator.enabled") {
		if err := authenticator.New(authenticator.Dependency{
			Ctx:        a.ctx,
			Config:     a.config,
			Instrument: a.ins,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Router:     a.router,
			Replay:     a.replay,
			Messaging:  a.messaging,
		}); err != nil {
			slog.Error("failed to init module authenticator", "error", err)
			os.Exit(1)
		}
	}
}
