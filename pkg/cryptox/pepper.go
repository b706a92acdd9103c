package cryptox

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoPepper is returned by hashing when SetPepperPath was never called.
var ErrNoPepper = errors.New("cryptox: pepper path not set")

var (
	pepperMu   sync.Mutex
	pepperPath string
	pepper     []byte
)

// SetPepperPath sets the file the pepper is read from. The file is created
// with a random pepper on first use. Changing the path drops the cached
// value.
func SetPepperPath(path string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()
	pepperPath = filepath.Clean(path)
	pepper = nil
}

func loadPepper() ([]byte, error) {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	if pepper != nil {
		return pepper, nil
	}
	if pepperPath == "" || pepperPath == "." {
		return nil, ErrNoPepper
	}

	p, err := readPepper(pepperPath)
	if errors.Is(err, fs.ErrNotExist) {
		p, err = createPepper(pepperPath)
	}
	if err != nil {
		return nil, err
	}
	pepper = p
	return pepper, nil
}

func readPepper(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("cryptox: pepper file %s is empty", path)
	}
	return b, nil
}

// createPepper writes a new pepper unless another process won the race, in
// which case that pepper is used.
func createPepper(path string) ([]byte, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("cryptox: create pepper dir: %w", err)
	}
	secret, err := GenerateSecret(SecretSize)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return readPepper(path)
	}
	if err != nil {
		return nil, fmt.Errorf("cryptox: create pepper: %w", err)
	}
	_, err = f.WriteString(secret)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("cryptox: write pepper: %w", err)
	}
	return []byte(secret), nil
}
