// Package media stores uploaded files in two phases: an upload is staged
// while the request is in flight and committed only when the handler
// succeeds. Anything left in staging is discarded or swept later.
package media

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aussiebroadwan/blogd/pkg/idx"
)

var (
	ErrNotFound   = errors.New("media: object not found")
	ErrInvalidKey = errors.New("media: invalid key")
	ErrEmpty      = errors.New("media: empty upload")
)

// Upload is an incoming file.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Staged is an upload held in the staging area.
type Staged struct {
	Key         string
	Filename    string
	ContentType string
	Size        int64
}

// Stager is implemented by the disk and S3 backends.
type Stager interface {
	// Stage stores u under a fresh key in the staging area.
	Stage(ctx context.Context, u Upload) (Staged, error)
	// Commit moves a staged object to permanent storage and returns its key.
	Commit(ctx context.Context, s Staged) (string, error)
	// Discard removes a staged object. Discarding twice is not an error.
	Discard(ctx context.Context, s Staged) error
	// Delete removes a committed object. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
	// Sweep removes staged objects last written before the cutoff.
	Sweep(ctx context.Context, before time.Time) (int, error)
	// URL is the public location of a committed key.
	URL(key string) string
}

// newKey returns a sortable key that keeps the upload's extension.
func newKey(filename string) string {
	return idx.New().Lower() + extension(filename)
}

func extension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 9 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}

// ValidKey reports whether key could have been produced by a Stager.
// Anything else is rejected before it reaches a filesystem or bucket.
func ValidKey(key string) bool {
	if key == "" || len(key) > 64 || key[0] == '.' {
		return false
	}
	for _, c := range key {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '.' {
			return false
		}
	}
	return !strings.Contains(key, "..")
}
