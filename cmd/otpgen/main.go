// Command otpgen prints the current TOTP code for a Base32 secret.
//
//	otpgen -secret JBSWY3DPEHPK3PXP [-period 30] [-digits 6] [-at unix]
//	OTP_SECRET=JBSWY3DPEHPK3PXP otpgen
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	libOTP "github.com/pquerna/otp"
	"github.com/shandysiswandi/otpbite/internal/pkg/base32"
	"github.com/shandysiswandi/otpbite/internal/pkg/clock"
	"github.com/shandysiswandi/otpbite/internal/pkg/otp"
)

var errMissingSecret = errors.New("secret is required: pass -secret or set OTP_SECRET")

type options struct {
	Secret string `env:"OTP_SECRET"`
	Period uint   `env:"OTP_PERIOD" envDefault:"30"`
	Digits int    `env:"OTP_DIGITS" envDefault:"6"`
	// At is nil unless -at or OTP_AT was given.
	At *int64 `env:"OTP_AT"`
}

func main() {
	if err := run(os.Args[1:], env.ToMap(os.Environ()), os.Stdout, clock.New()); err != nil {
		slog.Error("otpgen failed", "error", err)
		os.Exit(1)
	}
}

func parse(args []string, environ map[string]string) (options, error) {
	var opts options
	if err := env.ParseWithOptions(&opts, env.Options{Environment: environ}); err != nil {
		return opts, fmt.Errorf("read environment: %w", err)
	}

	fs := flag.NewFlagSet("otpgen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.Secret, "secret", opts.Secret, "Base32 secret")
	fs.UintVar(&opts.Period, "period", opts.Period, "time step in seconds")
	fs.IntVar(&opts.Digits, "digits", opts.Digits, "code length, 1 to 10")
	at := fs.Int64("at", 0, "unix time to generate for, defaults to now")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "at" {
			opts.At = at
		}
	})

	if opts.Secret == "" {
		return opts, errMissingSecret
	}

	if opts.Period == 0 || opts.Period > 1<<31 {
		return opts, fmt.Errorf("period must be between 1 and %d seconds", 1<<31)
	}

	return opts, nil
}

func run(args []string, environ map[string]string, stdout io.Writer, clk clock.Clocker) error {
	opts, err := parse(args, environ)
	if err != nil {
		return err
	}

	key, err := base32.Decode(base32.Normalize(opts.Secret))
	if err != nil {
		return err
	}

	engine, err := otp.NewTOTP(otp.Params{
		Period: uint32(opts.Period), //nolint:gosec // bounded in parse
		Digits: libOTP.Digits(opts.Digits),
	})
	if err != nil {
		return err
	}

	at := clk.Now()
	if opts.At != nil {
		at = time.Unix(*opts.At, 0)
	}

	code, err := engine.Generate(key, at)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(stdout, "%s\t%ds remaining\n", code.Value, code.SecondsRemaining)
	return err
}
