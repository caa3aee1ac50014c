// Package uid generates string identifiers.
package uid

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
