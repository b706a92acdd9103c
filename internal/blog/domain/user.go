package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	MinUsernameLength = 4
	MaxUsernameLength = 32
	MinPasswordLength = 8
	MaxPasswordLength = 256
)

type User struct {
	ID           string
	Username     string
	PasswordHash string // argon2id PHC, or bcrypt for imported accounts
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeUsername trims s and reports whether the result is an
// acceptable username: 4 to 32 letters, digits, '.', '_' or '-'.
func NormalizeUsername(s string) (string, bool) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return s, false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return s, false
		}
	}
	return s, true
}

// ValidPassword bounds password length in bytes. Content is not checked.
func ValidPassword(p string) bool {
	return len(p) >= MinPasswordLength && len(p) <= MaxPasswordLength
}
