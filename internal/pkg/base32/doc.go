// Package base32 decodes the Base32 shared secrets used by authenticator
// apps into raw HMAC key bytes.
//
// Secrets are read with the RFC 4648 alphabet (A-Z, 2-7), case-insensitive
// and without padding. Any trailing group of fewer than eight bits is
// discarded, which is how authenticator apps treat secrets whose length is
// not a multiple of eight symbols.
//
// Decode is strict and rejects characters outside the alphabet.
// DecodeLenient reproduces the legacy behaviour of silently skipping them and
// should only be used when migrating existing secrets.
package base32
