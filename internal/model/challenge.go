package model

import "time"

// Challenge is the server-side record of one outstanding verification
// code for one email. At most one challenge exists per email; a fresh
// issuance overwrites the previous record wholesale.
type Challenge struct {
	Email      string
	CodeHash   string
	Role       string
	ExpiresAt  time.Time
	LastSentAt time.Time
	Attempts   int
}
