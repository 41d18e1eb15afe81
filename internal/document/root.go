package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxBytes caps a single document read.
const MaxBytes = 4 << 20

// Root reads documents from one directory tree. Paths that resolve outside
// the tree, including through symlinks, are rejected.
type Root struct {
	abs string
}

func NewRoot(dir string) (*Root, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("document: empty root")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if abs, err = filepath.EvalSymlinks(abs); err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("document: %s is not a directory", dir)
	}
	return &Root{abs: abs}, nil
}

func (r *Root) Dir() string { return r.abs }

// Read returns the document at rel, a path relative to the root.
func (r *Root) Read(rel string) (string, error) {
	p, err := r.resolve(rel)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(p)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("document: %s is a directory", rel)
	}
	if info.Size() > MaxBytes {
		return "", fmt.Errorf("document: %s exceeds %d bytes", rel, MaxBytes)
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (r *Root) resolve(rel string) (string, error) {
	if r == nil {
		return "", errors.New("document: root not configured")
	}
	if strings.TrimSpace(rel) == "" {
		return "", errors.New("document: empty path")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("document: %s must be relative to the root", rel)
	}
	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.New("document: path traversal not allowed")
	}
	resolved, err := filepath.EvalSymlinks(filepath.Join(r.abs, clean))
	if err != nil {
		return "", err
	}
	if resolved != r.abs && !strings.HasPrefix(resolved, r.abs+string(filepath.Separator)) {
		return "", fmt.Errorf("document: %s resolves outside the root", rel)
	}
	return resolved, nil
}
