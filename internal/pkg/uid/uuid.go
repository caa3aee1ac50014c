package uid

import "github.com/google/uuid"

// UUID generates time-ordered UUID strings (version 7, falling back to version 4).
type UUID struct{}

var _ StringID = (*UUID)(nil)

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUID string.
func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Static always returns the same id. Tests use it to pin correlation ids.
type Static string

// Generate returns s.
func (s Static) Generate() string {
	return string(s)
}
