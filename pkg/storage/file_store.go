package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/echoverse/narrate/pkg/errorsx"
)

// Store persists audio bytes and returns a stable reference for the caller.
type Store interface {
	Store(ctx context.Context, data []byte, suggestedName string) (string, error)
}

// FileStore writes audio files into a local directory. Names are sanitized
// and never overwritten: a retried identical input yields a fresh file, so
// the store is safe under retry without coordination.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Join(os.TempDir(), "narrate_output")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("creating output directory: %w", err), errorsx.ReasonStoreWrite)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Store(ctx context.Context, data []byte, suggestedName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errorsx.New("refusing to store empty audio", errorsx.ReasonStoreWrite)
	}

	name := sanitizeName(suggestedName)
	path := filepath.Join(s.dir, name)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(s.dir, fmt.Sprintf("%s_%d%s", base, counter, ext))
	}

	// Write to a temp file first so a crash never leaves a partial narration
	// under the final name.
	tmp, err := os.CreateTemp(s.dir, ".narrate-*")
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonStoreWrite)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", errorsx.Wrap(err, errorsx.ReasonStoreWrite)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", errorsx.Wrap(err, errorsx.ReasonStoreWrite)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", errorsx.Wrap(err, errorsx.ReasonStoreWrite)
	}

	s.logger.Info("audio stored",
		slog.String("path", path),
		slog.Int("bytes", len(data)))
	return path, nil
}

// sanitizeName keeps letters, digits, dash, underscore and dot, matching the
// naming rules of the upload layer this store serves.
func sanitizeName(name string) string {
	name = strings.TrimSpace(filepath.Base(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		out = "narration"
	}
	return out
}

var _ Store = (*FileStore)(nil)
