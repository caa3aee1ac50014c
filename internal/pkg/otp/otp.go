package otp

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // RFC 6238 default algorithm
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"hash"
	"math"
	"time"

	"github.com/pquerna/otp"
	"github.com/shandysiswandi/otpbite/internal/pkg/base32"
)

const (
	// DefaultPeriod is the RFC 6238 time step in seconds.
	DefaultPeriod uint32 = 30
	// DefaultDigits is the usual code length.
	DefaultDigits = otp.DigitsSix
	// MaxDigits is the longest code a 31-bit truncated value can fill.
	MaxDigits otp.Digits = 10
)

// OTP defines the contract for TOTP operations.
type OTP interface {
	// Generate creates the code for key at the given time.
	Generate(key []byte, at time.Time) (*Code, error)
	// GenerateSecret decodes a Base32 secret and creates the code at the given time.
	GenerateSecret(secret string, at time.Time) (*Code, error)
	// Validate checks whether code is valid for key at the given time, within the skew window.
	Validate(key []byte, code string, at time.Time) (bool, error)
	// Match is Validate that also reports the counter the code matched.
	Match(key []byte, code string, at time.Time) (uint64, bool, error)
	// Period returns the time step in seconds.
	Period() uint32
	// Skew returns the number of adjacent time steps accepted on each side.
	Skew() uint
	// Digits returns the code length.
	Digits() otp.Digits
}

// Code is a generated TOTP value together with its validity window.
type Code struct {
	// Value is the zero-padded decimal code.
	Value string
	// Counter is floor(unix / period), the HOTP moving factor.
	Counter uint64
	// Period is the time step in seconds.
	Period uint32
	// SecondsRemaining is the number of seconds before the code changes, in [1, Period].
	SecondsRemaining uint32
	// GeneratedAt is the sampled time, truncated to the second.
	GeneratedAt time.Time
}

// Params configures a TOTP instance.
type Params struct {
	// Period is the time step in seconds. Zero means DefaultPeriod.
	Period uint32
	// Digits is the code length, 1 to MaxDigits. Zero means DefaultDigits.
	Digits otp.Digits
	// Skew is the number of adjacent time steps Validate accepts on each side.
	Skew uint
	// MinKeyLength rejects keys shorter than this many bytes when positive.
	MinKeyLength int
}

// TOTP implements OTP using HMAC-SHA1. It is immutable and safe for concurrent use.
type TOTP struct {
	period       uint32
	digits       otp.Digits
	skew         uint
	minKeyLength int
	newHash      func() hash.Hash
}

var _ OTP = (*TOTP)(nil)

// NewTOTP constructs a TOTP instance, applying RFC 6238 defaults for zero values.
func NewTOTP(p Params) (*TOTP, error) {
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}

	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}

	if p.Digits < 1 || p.Digits > MaxDigits {
		return nil, fmt.Errorf("%w: digits must be between 1 and %d, got %d", ErrInvalidParams, MaxDigits, p.Digits)
	}

	if p.MinKeyLength < 0 {
		return nil, fmt.Errorf("%w: negative minimum key length", ErrInvalidParams)
	}

	return &TOTP{
		period:       p.Period,
		digits:       p.Digits,
		skew:         p.Skew,
		minKeyLength: p.MinKeyLength,
		newHash:      sha1.New,
	}, nil
}

// Period returns the time step in seconds.
func (o *TOTP) Period() uint32 {
	return o.period
}

// Digits returns the code length.
func (o *TOTP) Digits() otp.Digits {
	return o.digits
}

// Skew returns the number of adjacent time steps accepted on each side.
func (o *TOTP) Skew() uint {
	return o.skew
}

// Generate creates the code for key at the given time.
//
// The time is sampled once; the counter and the remaining validity are both
// derived from that single value.
func (o *TOTP) Generate(key []byte, at time.Time) (*Code, error) {
	now := at.Unix()
	if now < 0 {
		return nil, ErrInvalidTime
	}

	counter := Counter(now, o.period)
	value, err := o.HOTP(key, counter)
	if err != nil {
		return nil, err
	}

	return &Code{
		Value:            value,
		Counter:          counter,
		Period:           o.period,
		SecondsRemaining: SecondsRemaining(now, o.period),
		GeneratedAt:      time.Unix(now, 0).In(at.Location()),
	}, nil
}

// GenerateSecret decodes a Base32 secret strictly and creates the code at the given time.
func (o *TOTP) GenerateSecret(secret string, at time.Time) (*Code, error) {
	key, err := base32.Decode(secret)
	if err != nil {
		return nil, err
	}

	return o.Generate(key, at)
}

// HOTP returns the RFC 4226 value of key for an explicit counter.
func (o *TOTP) HOTP(key []byte, counter uint64) (string, error) {
	if o.minKeyLength > 0 && len(key) < o.minKeyLength {
		return "", fmt.Errorf("%w: %d bytes, need at least %d", ErrDegenerateKey, len(key), o.minKeyLength)
	}

	digest, err := o.mac(key, counter)
	if err != nil {
		return "", err
	}

	value, err := Truncate(digest)
	if err != nil {
		return "", err
	}

	return Format(value, o.digits), nil
}

// Validate checks whether code is valid for key at the given time.
//
// Counters from c-skew to c+skew are tried; the comparison is constant-time.
// A code of the wrong length is simply invalid.
func (o *TOTP) Validate(key []byte, code string, at time.Time) (bool, error) {
	_, ok, err := o.Match(key, code, at)
	return ok, err
}

// Match works like Validate and also returns the counter that produced code,
// so callers can refuse a second use of the same time step.
func (o *TOTP) Match(key []byte, code string, at time.Time) (uint64, bool, error) {
	now := at.Unix()
	if now < 0 {
		return 0, false, ErrInvalidTime
	}

	if len(code) != o.digits.Length() {
		return 0, false, nil
	}

	counter := Counter(now, o.period)
	for _, c := range window(counter, o.skew) {
		candidate, err := o.HOTP(key, c)
		if err != nil {
			return 0, false, err
		}

		if subtle.ConstantTimeCompare([]byte(candidate), []byte(code)) == 1 {
			return c, true, nil
		}
	}

	return 0, false, nil
}

func (o *TOTP) mac(key []byte, counter uint64) ([]byte, error) {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(o.newHash, key)
	if n, err := mac.Write(msg[:]); err != nil || n != len(msg) {
		return nil, fmt.Errorf("%w: write counter: wrote %d bytes: %v", ErrDigestFailure, n, err)
	}

	return mac.Sum(nil), nil
}

// window lists the current counter first, then its neighbours, skipping values
// that would wrap around.
func window(counter uint64, skew uint) []uint64 {
	counters := make([]uint64, 0, 2*skew+1)
	counters = append(counters, counter)

	for i := uint64(1); i <= uint64(skew); i++ {
		if counter >= i {
			counters = append(counters, counter-i)
		}
		if counter <= math.MaxUint64-i {
			counters = append(counters, counter+i)
		}
	}

	return counters
}

// Counter returns floor(now / period). now must not be negative.
func Counter(now int64, period uint32) uint64 {
	return uint64(now) / uint64(period)
}

// SecondsRemaining returns period - now mod period, which is always in [1, period].
func SecondsRemaining(now int64, period uint32) uint32 {
	return period - uint32(uint64(now)%uint64(period))
}

// Truncate applies RFC 4226 dynamic truncation to a SHA-1 digest.
func Truncate(digest []byte) (uint32, error) {
	if len(digest) != sha1.Size {
		return 0, fmt.Errorf("%w: digest is %d bytes, want %d", ErrDigestFailure, len(digest), sha1.Size)
	}

	offset := digest[sha1.Size-1] & 0x0F // max 15

	return uint32(digest[offset]&0x7F)<<24 |
		uint32(digest[offset+1])<<16 |
		uint32(digest[offset+2])<<8 |
		uint32(digest[offset+3]), nil
}

// Format reduces value modulo 10^digits and left-pads it with zeros.
func Format(value uint32, digits otp.Digits) string {
	mod := uint64(math.Pow10(digits.Length()))

	//nolint:gosec // the remainder never exceeds value, which fits 31 bits
	return digits.Format(int32(uint64(value) % mod))
}

var defaultTOTP = &TOTP{
	period:  DefaultPeriod,
	digits:  DefaultDigits,
	newHash: sha1.New,
}

// GenerateCode returns the default six-digit, 30-second code for a Base32 secret.
func GenerateCode(secret string, at time.Time) (*Code, error) {
	return defaultTOTP.GenerateSecret(secret, at)
}
