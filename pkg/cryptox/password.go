package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Argon2id parameters for new hashes. Verification uses the parameters
// recorded in the hash itself.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

var (
	// ErrPasswordMismatch is returned when a password does not match its hash.
	ErrPasswordMismatch = errors.New("password does not match")

	errMalformedHash = errors.New("invalid hash format")
)

// HashPassword returns a peppered Argon2id hash in PHC string form.
func HashPassword(password string) (string, error) {
	p, err := loadPepper()
	if err != nil {
		return "", err
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey(peppered(password, p), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword compares a plaintext password against a stored hash. Both
// our Argon2id PHC strings and bcrypt hashes imported from older accounts
// are accepted. Bcrypt hashes were created without the pepper.
func VerifyPassword(password, encodedHash string) error {
	if isBcrypt(encodedHash) {
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		if err != nil {
			return fmt.Errorf("%w: %w", errMalformedHash, err)
		}
		return nil
	}
	return verifyArgon2(password, encodedHash)
}

// NeedsRehash reports whether the hash should be replaced with a fresh
// Argon2id hash after a successful login.
func NeedsRehash(encodedHash string) bool {
	return isBcrypt(encodedHash)
}

func isBcrypt(encodedHash string) bool {
	return strings.HasPrefix(encodedHash, "$2a$") ||
		strings.HasPrefix(encodedHash, "$2b$") ||
		strings.HasPrefix(encodedHash, "$2y$")
}

func peppered(password string, p []byte) []byte {
	b := make([]byte, 0, len(password)+len(p))
	b = append(b, password...)
	return append(b, p...)
}

type argonParams struct {
	memory     uint32
	iterations uint32
	threads    uint8
	salt, key  []byte
}

// parseArgon2 splits "$argon2id$v=19$m=..,t=..,p=..$salt$key".
func parseArgon2(encodedHash string) (argonParams, error) {
	var ap argonParams

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return ap, fmt.Errorf("%w: expected 6 parts", errMalformedHash)
	}
	if parts[1] != "argon2id" {
		return ap, fmt.Errorf("%w: not argon2id", errMalformedHash)
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return ap, fmt.Errorf("%w: wrong version", errMalformedHash)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &ap.memory, &ap.iterations, &ap.threads); err != nil {
		return ap, fmt.Errorf("%w: parameters: %w", errMalformedHash, err)
	}

	var err error
	if ap.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return ap, fmt.Errorf("%w: salt: %w", errMalformedHash, err)
	}
	if ap.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return ap, fmt.Errorf("%w: key: %w", errMalformedHash, err)
	}
	if len(ap.key) == 0 {
		return ap, fmt.Errorf("%w: empty key", errMalformedHash)
	}
	return ap, nil
}

func verifyArgon2(password, encodedHash string) error {
	ap, err := parseArgon2(encodedHash)
	if err != nil {
		return err
	}
	p, err := loadPepper()
	if err != nil {
		return err
	}

	computed := argon2.IDKey(peppered(password, p), ap.salt, ap.iterations, ap.memory, ap.threads,
		uint32(len(ap.key))) // #nosec G115 -- key length comes from our own encoding

	if subtle.ConstantTimeCompare(computed, ap.key) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}
