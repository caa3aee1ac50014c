package base32

import (
	stdbase32 "encoding/base32"
	"errors"
	"fmt"
	"strings"
)

// Alphabet is the RFC 4648 Base32 alphabet.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// ErrInvalidSecretEncoding indicates the secret contains a character outside Alphabet.
var ErrInvalidSecretEncoding = errors.New("base32: invalid secret encoding")

// DecodeError reports the first character that is not part of Alphabet.
type DecodeError struct {
	Offset int
	Char   rune
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: illegal character %q at offset %d", ErrInvalidSecretEncoding, e.Char, e.Offset)
}

// Unwrap makes DecodeError match ErrInvalidSecretEncoding with errors.Is.
func (e *DecodeError) Unwrap() error {
	return ErrInvalidSecretEncoding
}

var decodeMap = func() [256]byte {
	var m [256]byte
	for i := range m {
		m[i] = 0xFF
	}
	for i := 0; i < len(Alphabet); i++ {
		c := Alphabet[i]
		m[c] = byte(i)
		if c >= 'A' && c <= 'Z' {
			m[c+('a'-'A')] = byte(i)
		}
	}
	return m
}()

// Decode converts secret into key bytes.
//
// Symbols are concatenated most significant bit first and sliced into bytes;
// leftover bits shorter than a byte are dropped. An empty secret yields an
// empty, non-nil slice.
func Decode(secret string) ([]byte, error) {
	out := make([]byte, 0, len(secret)*5/8)

	var acc uint32
	var bits uint
	for i, r := range secret {
		if r >= 0x80 || decodeMap[r] == 0xFF {
			return nil, &DecodeError{Offset: i, Char: r}
		}

		acc = acc<<5 | uint32(decodeMap[r])
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(acc>>bits))
			acc &= 1<<bits - 1
		}
	}

	return out, nil
}

// DecodeLenient is like Decode but skips characters outside Alphabet.
func DecodeLenient(secret string) []byte {
	var b strings.Builder
	b.Grow(len(secret))
	for _, r := range secret {
		if r < 0x80 && decodeMap[r] != 0xFF {
			b.WriteRune(r)
		}
	}

	//nolint:errcheck // every remaining symbol is valid
	key, _ := Decode(b.String())
	return key
}

// Normalize removes the grouping spaces and dashes authenticator apps print,
// strips trailing '=' padding and uppercases the result.
func Normalize(secret string) string {
	secret = strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '\t' {
			return -1
		}
		return r
	}, secret)

	return strings.ToUpper(strings.TrimRight(secret, "="))
}

// Encode returns the unpadded Base32 form of key.
func Encode(key []byte) string {
	return stdbase32.StdEncoding.WithPadding(stdbase32.NoPadding).EncodeToString(key)
}
