package entity

import "time"

// AccountCode is the state of one account at one instant.
//
// Exactly one of Code and Error is set: a failed account never carries a code.
type AccountCode struct {
	AccountID        string
	Name             string
	Issuer           string
	Code             string
	SecondsRemaining uint32
	Period           uint32
	// Progress is SecondsRemaining/Period, from 1 down to just above 0.
	Progress float64
	// Expiring is set once SecondsRemaining drops to the warning threshold.
	Expiring bool
	Error    string
}

// Failed reports whether the code could not be generated.
func (c AccountCode) Failed() bool {
	return c.Error != ""
}

// Snapshot is every account's code computed from a single sampled time.
type Snapshot struct {
	Timestamp time.Time
	Codes     []AccountCode
}
