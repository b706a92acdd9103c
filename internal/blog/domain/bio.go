package domain

import "time"

const MaxBioLength = 2_000

// Bio is a user's free-form profile text. A user has at most one.
type Bio struct {
	UserID    string
	Content   string
	UpdatedAt time.Time
}
