package config

import (
	"io"
	"time"
)

// TimeConfig defines helpers for retrieving time-based configuration values.
type TimeConfig interface {
	// GetSecond retrieves the value associated with key as a number of seconds.
	// Missing or non-numeric values yield zero.
	GetSecond(key string) time.Duration

	// GetMinute retrieves the value associated with key as a number of minutes.
	// Missing or non-numeric values yield zero.
	GetMinute(key string) time.Duration
}

// NumberConfig defines helpers for retrieving numeric configuration values.
// Missing or non-numeric values yield zero.
type NumberConfig interface {
	GetInt(key string) int
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint32(key string) uint32
	GetFloat64(key string) float64
}

// Config defines a set of methods for retrieving configuration values of various types.
// Implementations handle the retrieval and type conversion of configuration data and
// may reload it at runtime; OnChange listeners are notified after each reload.
type Config interface {
	io.Closer
	TimeConfig
	NumberConfig

	// IsSet reports whether key has a value in the loaded configuration.
	IsSet(key string) bool

	// GetBool retrieves the value associated with key as a bool.
	GetBool(key string) bool

	// GetString retrieves the value associated with key as a string.
	GetString(key string) string

	// GetArray retrieves the value associated with key as a slice of strings.
	// Scalar values are stored with format <element1>,<element2>,...
	GetArray(key string) []string

	// Unmarshal decodes the subtree at key into out (a pointer), using
	// `mapstructure` field tags.
	Unmarshal(key string, out any) error

	// OnChange registers fn to run after the configuration has been reloaded.
	OnChange(fn func())
}
