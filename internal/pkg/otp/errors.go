package otp

import (
	"errors"

	"github.com/shandysiswandi/otpbite/internal/pkg/base32"
)

var (
	// ErrInvalidSecretEncoding indicates the Base32 secret contains characters outside the alphabet.
	ErrInvalidSecretEncoding = base32.ErrInvalidSecretEncoding

	// ErrDegenerateKey indicates the key is shorter than the configured minimum length.
	ErrDegenerateKey = errors.New("otp: degenerate key")

	// ErrDigestFailure indicates the HMAC digest could not be computed.
	ErrDigestFailure = errors.New("otp: digest failure")

	// ErrInvalidParams indicates the period or digits configuration is unusable.
	ErrInvalidParams = errors.New("otp: invalid parameters")

	// ErrInvalidTime indicates a timestamp before the Unix epoch.
	ErrInvalidTime = errors.New("otp: time before unix epoch")
)
