package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const stagingDir = ".staging"

// Disk keeps objects on the local filesystem. Staged files live in a hidden
// directory under root; committing is a rename.
type Disk struct {
	root      string
	staging   string
	urlPrefix string
}

var _ Stager = (*Disk)(nil)

// NewDisk creates root and its staging directory. urlPrefix is prepended to
// committed keys by URL, e.g. "/media".
func NewDisk(root, urlPrefix string) (*Disk, error) {
	staging := filepath.Join(root, stagingDir)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("media: create %s: %w", staging, err)
	}
	return &Disk{
		root:      root,
		staging:   staging,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
	}, nil
}

func (d *Disk) Stage(_ context.Context, u Upload) (Staged, error) {
	key := newKey(u.Filename)
	path := filepath.Join(d.staging, key)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Staged{}, fmt.Errorf("media: stage: %w", err)
	}
	n, err := io.Copy(f, u.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n == 0 {
		err = ErrEmpty
	}
	if err != nil {
		_ = os.Remove(path)
		return Staged{}, fmt.Errorf("media: stage: %w", err)
	}

	return Staged{Key: key, Filename: u.Filename, ContentType: u.ContentType, Size: n}, nil
}

func (d *Disk) Commit(_ context.Context, s Staged) (string, error) {
	if !ValidKey(s.Key) {
		return "", ErrInvalidKey
	}
	err := os.Rename(filepath.Join(d.staging, s.Key), filepath.Join(d.root, s.Key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("media: commit: %w", err)
	}
	return s.Key, nil
}

func (d *Disk) Discard(_ context.Context, s Staged) error {
	if !ValidKey(s.Key) {
		return ErrInvalidKey
	}
	return removeIfExists(filepath.Join(d.staging, s.Key))
}

func (d *Disk) Delete(_ context.Context, key string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	return removeIfExists(filepath.Join(d.root, key))
}

func (d *Disk) Sweep(ctx context.Context, before time.Time) (int, error) {
	entries, err := os.ReadDir(d.staging)
	if err != nil {
		return 0, fmt.Errorf("media: sweep: %w", err)
	}

	var removed int
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		info, err := e.Info()
		if err != nil || info.IsDir() || !info.ModTime().Before(before) {
			continue
		}
		if err := removeIfExists(filepath.Join(d.staging, e.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (d *Disk) URL(key string) string {
	return d.urlPrefix + "/" + key
}

// Handler serves committed objects. The key comes from the {key} path
// wildcard; staged objects are never reachable.
func (d *Disk) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")
		if !ValidKey(key) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeFile(w, r, filepath.Join(d.root, key))
	})
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("media: remove: %w", err)
	}
	return nil
}
