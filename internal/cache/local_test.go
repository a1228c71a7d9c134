package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zstadler/mapproxy/internal/grid"
)

func TestNewLocalStoreRequiresBaseDir(t *testing.T) {
	t.Parallel()

	_, err := NewLocalStore(LocalConfig{})
	require.Error(t, err)
}

func TestNewLocalStoreCreatesMissingDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "tiles")
	_, err := NewLocalStore(LocalConfig{BaseDir: dir})
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestLocalStorePutAndModTime(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewLocalStore(LocalConfig{BaseDir: dir})
	require.NoError(t, err)

	ctx := context.Background()
	coord := grid.TileCoord{X: 5, Y: 3, Level: 7}

	_, ok, err := store.ModTime(ctx, coord)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Put(ctx, coord, []byte("tile-bytes")))

	modTime, ok, err := store.ModTime(ctx, coord)
	require.NoError(t, err)
	require.True(t, ok)
	require.WithinDuration(t, time.Now(), modTime, time.Minute)

	// Tiles land at level/x/y.png under the base directory.
	data, err := os.ReadFile(filepath.Join(dir, "7", "5", "3.png"))
	require.NoError(t, err)
	require.Equal(t, []byte("tile-bytes"), data)

	// Overwrites replace the previous body.
	require.NoError(t, store.Put(ctx, coord, []byte("fresher")))
	data, err = os.ReadFile(filepath.Join(dir, "7", "5", "3.png"))
	require.NoError(t, err)
	require.Equal(t, []byte("fresher"), data)

	// No temp files survive a completed write.
	entries, err := os.ReadDir(filepath.Join(dir, "7", "5"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
