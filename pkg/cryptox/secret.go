package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// SecretSize is the default size in bytes of generated secrets; 32 bytes
// meets authn.MinSecretLength once encoded.
const SecretSize = 32

// GenerateSecret returns size random bytes, base64url encoded without
// padding.
func GenerateSecret(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("secret size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// MustGenerateSecret is GenerateSecret for package initialisation.
func MustGenerateSecret(size int) string {
	s, err := GenerateSecret(size)
	if err != nil {
		panic(fmt.Sprintf("cryptox: %v", err))
	}
	return s
}

// LogFingerprint identifies a token in logs without revealing it: the
// first 8 hex characters of its SHA-256.
func LogFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:4])
}
