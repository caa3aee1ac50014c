// Package clock provides a tiny time abstraction.
//
// Code that derives values from "now" (TOTP counters, remaining validity)
// depends on Clocker and samples it once per operation. Tests use Fixed to
// pin and step the time deterministically.
package clock
