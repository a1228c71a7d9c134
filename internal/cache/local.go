package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zstadler/mapproxy/internal/grid"
)

// LocalConfig captures the parameters for the filesystem tile store.
type LocalConfig struct {
	// BaseDir is the root directory; tiles land at level/x/y.png below it.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// LocalStore writes tiles to the local filesystem.
type LocalStore struct {
	baseDir string
}

// NewLocalStore validates the base directory, creating it when missing.
func NewLocalStore(cfg LocalConfig) (*LocalStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	info, err := os.Stat(cfg.BaseDir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	}
	return &LocalStore{baseDir: cfg.BaseDir}, nil
}

func (s *LocalStore) tilePath(c grid.TileCoord) string {
	return filepath.Join(s.baseDir,
		strconv.Itoa(c.Level), strconv.Itoa(c.X), strconv.Itoa(c.Y)+".png")
}

// ModTime stats the tile file.
func (s *LocalStore) ModTime(_ context.Context, c grid.TileCoord) (time.Time, bool, error) {
	info, err := os.Stat(s.tilePath(c))
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("stat tile: %w", err)
	}
	return info.ModTime(), true, nil
}

// Put writes the tile through a temp file and rename so concurrent readers
// never see a partial tile.
func (s *LocalStore) Put(_ context.Context, c grid.TileCoord, data []byte) error {
	path := s.tilePath(c)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create tile directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tile-*")
	if err != nil {
		return fmt.Errorf("create temp tile: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write tile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close tile: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename tile: %w", err)
	}
	return nil
}
