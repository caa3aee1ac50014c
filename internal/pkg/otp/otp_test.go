package otp

import (
	"crypto/sha1" //nolint:gosec // RFC 6238 default algorithm
	"errors"
	"fmt"
	"hash"
	"math/rand/v2"
	"regexp"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/shandysiswandi/otpbite/internal/pkg/base32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 6238 Appendix B seed for SHA-1, "12345678901234567890" in Base32.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

var rfcKey = []byte("12345678901234567890")

func newTestTOTP(t *testing.T, p Params) *TOTP {
	t.Helper()

	o, err := NewTOTP(p)
	require.NoError(t, err)

	return o
}

func TestTOTP_GenerateSecret_RFC6238(t *testing.T) {
	tests := []struct {
		unix   int64
		six    string
		eight  string
		remain uint32
	}{
		{unix: 59, six: "287082", eight: "94287082", remain: 1},
		{unix: 1111111109, six: "081804", eight: "07081804", remain: 1},
		{unix: 1111111111, six: "050471", eight: "14050471", remain: 29},
		{unix: 1234567890, six: "005924", eight: "89005924", remain: 30},
		{unix: 2000000000, six: "279037", eight: "69279037", remain: 10},
		{unix: 20000000000, six: "353130", eight: "65353130", remain: 10},
	}

	six := newTestTOTP(t, Params{})
	eight := newTestTOTP(t, Params{Digits: otp.DigitsEight})

	for _, tt := range tests {
		t.Run(fmt.Sprintf("unix_%d", tt.unix), func(t *testing.T) {
			at := time.Unix(tt.unix, 0).UTC()

			code, err := six.GenerateSecret(rfcSecret, at)
			require.NoError(t, err)
			assert.Equal(t, tt.six, code.Value)
			assert.Equal(t, tt.remain, code.SecondsRemaining)
			assert.Equal(t, uint64(tt.unix/30), code.Counter)
			assert.Equal(t, uint32(30), code.Period)

			code, err = eight.GenerateSecret(rfcSecret, at)
			require.NoError(t, err)
			assert.Equal(t, tt.eight, code.Value)
		})
	}
}

func TestTOTP_HOTP_RFC4226(t *testing.T) {
	want := []string{"755224", "287082", "359152", "969429", "338314", "254676", "287922", "162583", "399871", "520489"}

	o := newTestTOTP(t, Params{})
	for counter, expected := range want {
		got, err := o.HOTP(rfcKey, uint64(counter))

		require.NoError(t, err)
		assert.Equal(t, expected, got, "counter=%d", counter)
	}
}

func TestGenerateCode_Defaults(t *testing.T) {
	code, err := GenerateCode(rfcSecret, time.Unix(59, 0))

	require.NoError(t, err)
	assert.Equal(t, "287082", code.Value)
	assert.Equal(t, uint32(1), code.SecondsRemaining)
	assert.Equal(t, time.Unix(59, 0).Unix(), code.GeneratedAt.Unix())
}

func TestTOTP_Generate_SamplesTimeOnce(t *testing.T) {
	o := newTestTOTP(t, Params{})
	at := time.Unix(1111111109, 999_999_999)

	code, err := o.Generate(rfcKey, at)

	require.NoError(t, err)
	assert.Equal(t, "081804", code.Value)
	assert.Equal(t, uint32(1), code.SecondsRemaining)
	assert.Equal(t, time.Unix(1111111109, 0), code.GeneratedAt)
}

func TestFormat_ZeroPadding(t *testing.T) {
	assert.Equal(t, "000042", Format(42, otp.DigitsSix))
	assert.Equal(t, "00000042", Format(42, otp.DigitsEight))
	assert.Equal(t, "000000", Format(1_000_000, otp.DigitsSix))
	assert.Equal(t, "483647", Format(2147483647, otp.DigitsSix))
	assert.Equal(t, "2147483647", Format(2147483647, MaxDigits))
	assert.Equal(t, "7", Format(2147483647, otp.Digits(1)))
}

func TestTOTP_Generate_AlwaysDigitsLong(t *testing.T) {
	numeric := regexp.MustCompile(`^[0-9]+$`)
	rng := rand.New(rand.NewPCG(42, 1337))

	for _, digits := range []otp.Digits{1, 6, 7, 8, 10} {
		o := newTestTOTP(t, Params{Digits: digits})
		for i := 0; i < 200; i++ {
			now := rng.Int64N(1 << 40)

			code, err := o.Generate(rfcKey, time.Unix(now, 0))

			require.NoError(t, err)
			assert.Len(t, code.Value, digits.Length())
			assert.Regexp(t, numeric, code.Value)
		}
	}
}

func TestTOTP_Generate_SameBucketSameCode(t *testing.T) {
	o := newTestTOTP(t, Params{})
	start := int64(1_700_000_010) // multiple of 30

	first, err := o.Generate(rfcKey, time.Unix(start, 0))
	require.NoError(t, err)

	for offset := int64(1); offset < 30; offset++ {
		code, err := o.Generate(rfcKey, time.Unix(start+offset, 0))

		require.NoError(t, err)
		assert.Equal(t, first.Value, code.Value)
		assert.Equal(t, first.Counter, code.Counter)
	}

	next, err := o.Generate(rfcKey, time.Unix(start+30, 0))
	require.NoError(t, err)
	assert.Equal(t, first.Counter+1, next.Counter)
}

func TestSecondsRemaining(t *testing.T) {
	for _, period := range []uint32{1, 15, 30, 60} {
		prev := SecondsRemaining(0, period)
		assert.Equal(t, period, prev, "period=%d at 0", period)

		for now := int64(1); now < int64(period)*4; now++ {
			remaining := SecondsRemaining(now, period)

			assert.GreaterOrEqual(t, remaining, uint32(1))
			assert.LessOrEqual(t, remaining, period)

			if now%int64(period) == 0 {
				assert.Equal(t, period, remaining, "period=%d now=%d", period, now)
			} else {
				assert.Equal(t, prev-1, remaining, "period=%d now=%d", period, now)
			}
			prev = remaining
		}
	}
}

func TestCounter(t *testing.T) {
	assert.Equal(t, uint64(0), Counter(0, 30))
	assert.Equal(t, uint64(0), Counter(29, 30))
	assert.Equal(t, uint64(1), Counter(30, 30))
	assert.Equal(t, uint64(0x23523EC), Counter(1111111109, 30))
	assert.Equal(t, uint64(0x27BC86AA), Counter(20000000000, 30))
}

func TestTOTP_GenerateSecret_InvalidEncoding(t *testing.T) {
	o := newTestTOTP(t, Params{})

	for _, secret := range []string{"GEZDGNBVGY3TQOJ1", "0EZDGNBV", "GEZDGNB8", "GEZDGNB9"} {
		code, err := o.GenerateSecret(secret, time.Unix(59, 0))

		assert.Nil(t, code)
		assert.True(t, errors.Is(err, ErrInvalidSecretEncoding), "secret=%s err=%v", secret, err)
	}
}

func TestTOTP_DegenerateKey(t *testing.T) {
	t.Run("default accepts empty key", func(t *testing.T) {
		o := newTestTOTP(t, Params{})

		code, err := o.Generate(nil, time.Unix(59, 0))

		require.NoError(t, err)
		assert.Len(t, code.Value, 6)
	})

	t.Run("opt-in minimum length", func(t *testing.T) {
		o := newTestTOTP(t, Params{MinKeyLength: 10})

		code, err := o.Generate([]byte("short"), time.Unix(59, 0))

		assert.Nil(t, code)
		assert.ErrorIs(t, err, ErrDegenerateKey)

		code, err = o.Generate(rfcKey, time.Unix(59, 0))
		require.NoError(t, err)
		assert.Equal(t, "287082", code.Value)
	})

	t.Run("empty secret decodes to empty key", func(t *testing.T) {
		o := newTestTOTP(t, Params{MinKeyLength: 10})

		code, err := o.GenerateSecret("", time.Unix(59, 0))

		assert.Nil(t, code)
		assert.ErrorIs(t, err, ErrDegenerateKey)
	})
}

type failingWriteHash struct{ hash.Hash }

func (*failingWriteHash) Write([]byte) (int, error) {
	return 0, errors.New("hash unavailable")
}

type shortDigestHash struct{ hash.Hash }

func (*shortDigestHash) Size() int { return 4 }

func (*shortDigestHash) Sum(b []byte) []byte {
	return append(b, 0xde, 0xad, 0xbe, 0xef)
}

func TestTOTP_DigestFailure(t *testing.T) {
	tests := []struct {
		name    string
		newHash func() hash.Hash
	}{
		{name: "write error", newHash: func() hash.Hash { return &failingWriteHash{Hash: sha1.New()} }},
		{name: "short digest", newHash: func() hash.Hash { return &shortDigestHash{Hash: sha1.New()} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestTOTP(t, Params{})
			o.newHash = tt.newHash

			code, err := o.Generate(rfcKey, time.Unix(59, 0))

			assert.Nil(t, code)
			assert.ErrorIs(t, err, ErrDigestFailure)

			value, err := o.HOTP(rfcKey, 1)
			assert.Empty(t, value)
			assert.ErrorIs(t, err, ErrDigestFailure)
		})
	}
}

func TestTruncate(t *testing.T) {
	// RFC 4226 section 5.4 example digest.
	digest := []byte{
		0x1f, 0x86, 0x98, 0x69, 0x0e, 0x02, 0xca, 0x16, 0x61, 0x85,
		0x50, 0xef, 0x7f, 0x19, 0xda, 0x8e, 0x94, 0x5b, 0x55, 0x5a,
	}

	value, err := Truncate(digest)

	require.NoError(t, err)
	assert.Equal(t, uint32(0x50ef7f19), value)
	assert.Equal(t, "872921", Format(value, otp.DigitsSix))

	_, err = Truncate(digest[:19])
	assert.ErrorIs(t, err, ErrDigestFailure)
}

func TestTruncate_MasksSignBit(t *testing.T) {
	digest := make([]byte, sha1.Size)
	digest[sha1.Size-1] = 0x00
	digest[0], digest[1], digest[2], digest[3] = 0xff, 0xff, 0xff, 0xff

	value, err := Truncate(digest)

	require.NoError(t, err)
	assert.Equal(t, uint32(0x7fffffff), value)
}

func TestTOTP_Generate_NegativeTime(t *testing.T) {
	o := newTestTOTP(t, Params{})

	code, err := o.Generate(rfcKey, time.Unix(-1, 0))

	assert.Nil(t, code)
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestNewTOTP(t *testing.T) {
	o, err := NewTOTP(Params{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPeriod, o.Period())
	assert.Equal(t, otp.DigitsSix, o.Digits())

	o, err = NewTOTP(Params{Period: 60, Digits: otp.DigitsEight})
	require.NoError(t, err)
	assert.Equal(t, uint32(60), o.Period())
	assert.Equal(t, otp.DigitsEight, o.Digits())

	for _, p := range []Params{{Digits: 11}, {Digits: -1}, {MinKeyLength: -1}} {
		o, err := NewTOTP(p)
		assert.Nil(t, o)
		assert.ErrorIs(t, err, ErrInvalidParams)
	}
}

func TestTOTP_Validate(t *testing.T) {
	o := newTestTOTP(t, Params{Skew: 1})
	at := time.Unix(1111111109, 0) // counter c

	tests := []struct {
		name string
		code string
		want bool
	}{
		{name: "current step", code: "081804", want: true},
		{name: "previous step", code: mustHOTP(t, o, Counter(1111111109, 30)-1), want: true},
		{name: "next step", code: mustHOTP(t, o, Counter(1111111109, 30)+1), want: true},
		{name: "two steps away", code: mustHOTP(t, o, Counter(1111111109, 30)+2), want: false},
		{name: "wrong length", code: "81804", want: false},
		{name: "garbage", code: "abcdef", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := o.Validate(rfcKey, tt.code, at)

			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestTOTP_Validate_NoSkew(t *testing.T) {
	o := newTestTOTP(t, Params{})
	previous := mustHOTP(t, o, Counter(1111111109, 30)-1)

	ok, err := o.Validate(rfcKey, previous, time.Unix(1111111109, 0))

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTOTP_Match_ReportsCounter(t *testing.T) {
	o := newTestTOTP(t, Params{Skew: 1})
	c := Counter(1111111109, 30)

	got, ok, err := o.Match(rfcKey, mustHOTP(t, o, c+1), time.Unix(1111111109, 0))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, c+1, got)

	got, ok, err = o.Match(rfcKey, "081804", time.Unix(1111111109, 0))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, c, got)
	assert.Equal(t, uint(1), o.Skew())

	_, _, err = o.Match(rfcKey, "081804", time.Unix(-1, 0))
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestWindow_DoesNotWrap(t *testing.T) {
	assert.Equal(t, []uint64{0, 1, 2}, window(0, 2))
	assert.Equal(t, []uint64{5}, window(5, 0))
	assert.ElementsMatch(t, []uint64{^uint64(0), ^uint64(0) - 1}, window(^uint64(0), 1))
}

func TestTOTP_MatchesPquernaOTP(t *testing.T) {
	o := newTestTOTP(t, Params{})
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 100; i++ {
		key := make([]byte, 20)
		for j := range key {
			key[j] = byte(rng.UintN(256))
		}
		secret := base32.Encode(key)
		at := time.Unix(rng.Int64N(4_000_000_000), 0).UTC()

		want, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
			Period:    30,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		require.NoError(t, err)

		got, err := o.GenerateSecret(secret, at)
		require.NoError(t, err)

		assert.Equal(t, want, got.Value, "secret=%s at=%d", secret, at.Unix())
	}
}

func mustHOTP(t *testing.T, o *TOTP, counter uint64) string {
	t.Helper()

	code, err := o.HOTP(rfcKey, counter)
	require.NoError(t, err)

	return code
}
