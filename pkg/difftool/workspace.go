package difftool

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const workspacePattern = "wicky-difftool-"

// workspace is the private scratch directory of one operation.
// Everything the tools write, reject and backup files included, lands inside it.
type workspace struct {
	dir string
}

func newWorkspace(parent string) (*workspace, error) {
	dir, err := os.MkdirTemp(parent, workspacePattern)
	if err != nil {
		return nil, err
	}
	return &workspace{dir: dir}, nil
}

func (w *workspace) path(name string) string {
	return filepath.Join(w.dir, name)
}

func (w *workspace) write(name, content string) (string, error) {
	p := w.path(name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		return "", err
	}
	return p, nil
}

// read returns "" for a file the tool removed.
func (w *workspace) read(name string) (string, error) {
	b, err := os.ReadFile(w.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (w *workspace) exists(name string) bool {
	_, err := os.Stat(w.path(name))
	return err == nil
}

func (w *workspace) remove(name string) {
	_ = os.Remove(w.path(name))
}

func (w *workspace) Close() error {
	return os.RemoveAll(w.dir)
}

// SweepStale removes workspaces older than maxAge left behind by a crashed process.
// It returns the number of directories removed.
func (t *Tools) SweepStale(maxAge time.Duration) (int, error) {
	parent := t.cfg.TempDir
	if parent == "" {
		parent = os.TempDir()
	}
	entries, err := os.ReadDir(parent)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), workspacePattern) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(parent, e.Name())); err != nil {
			t.logger.Warn("remove stale workspace failed", zap.String("dir", e.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}
