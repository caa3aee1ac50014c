// Package otp generates and validates one-time passwords, focused on TOTP
// (RFC 6238) with HMAC-SHA1.
//
// A TOTP value is the HOTP value (RFC 4226) of the counter
// floor(unix / period): HMAC-SHA1 over the counter encoded as eight big-endian
// bytes, dynamically truncated to a 31-bit integer and reduced modulo
// 10^digits. The package is pure: callers sample the clock once and pass the
// resulting time in, so the code and its remaining validity always agree.
//
// Failures are returned as errors (ErrDegenerateKey, ErrDigestFailure,
// ErrInvalidSecretEncoding, ...). No function ever returns a placeholder code
// alongside an error.
package otp
