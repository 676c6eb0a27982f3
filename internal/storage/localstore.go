package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore keeps uploaded artifacts on the local disk. Artifacts are
// transient: the worker that owns a job removes its artifact once
// transcription finishes, whatever the outcome. The directory must be on the
// same filesystem the transcription engine reads from.
type LocalStore struct {
	dir string
}

// New creates the upload directory if it does not exist.
func New(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save writes the artifact under a fresh token-prefixed name derived from
// the sanitized original filename and returns the full path. The token keeps
// concurrent uploads of identically named files from colliding; it is not
// the job id.
func (s *LocalStore) Save(filename string, r io.Reader) (string, error) {
	name := fmt.Sprintf("%s_%s", uuid.New().String(), Sanitize(filename))
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating artifact: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing artifact: %w", err)
	}
	return path, nil
}

// Exists reports whether the artifact is still on disk.
func (s *LocalStore) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Remove deletes the artifact. Removing an already-absent artifact is not an
// error, so cleanup is idempotent.
func (s *LocalStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing artifact: %w", err)
	}
	return nil
}

// Sanitize strips path components and replaces characters outside a portable
// set with underscores, so a caller-supplied filename can never escape the
// upload directory.
func Sanitize(name string) string {
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		out = "upload"
	}
	return out
}
