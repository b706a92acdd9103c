package domain

import "time"

// RevokedToken is a token id that must not be honored before ExpiresAt.
// After that the token has expired anyway and the row can be purged.
type RevokedToken struct {
	JTI       string
	ExpiresAt time.Time
}
