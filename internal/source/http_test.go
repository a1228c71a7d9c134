package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zstadler/mapproxy/internal/grid"
	"github.com/zstadler/mapproxy/internal/seeder"
)

func TestNewValidatesTemplate(t *testing.T) {
	t.Parallel()

	_, err := New(Config{URLTemplate: "https://tiles.example.com/{z}/{x}"}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "{y}")
}

func TestTileURL(t *testing.T) {
	t.Parallel()

	s, err := New(Config{URLTemplate: "https://tiles.example.com/{z}/{x}/{y}.png"}, nil)
	require.NoError(t, err)
	require.Equal(t, "https://tiles.example.com/7/42/99.png",
		s.TileURL(grid.TileCoord{X: 42, Y: 99, Level: 7}))
}

func TestFetchTileSuccess(t *testing.T) {
	t.Parallel()

	var gotPath, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.UserAgent()
		_, _ = w.Write([]byte("tile-body"))
	}))
	defer srv.Close()

	s, err := New(Config{
		URLTemplate: srv.URL + "/{z}/{x}/{y}.png",
		UserAgent:   "mapproxy-seed-test",
	}, nil)
	require.NoError(t, err)

	body, err := s.FetchTile(context.Background(), grid.TileCoord{X: 1, Y: 2, Level: 3})
	require.NoError(t, err)
	assert.Equal(t, []byte("tile-body"), body)
	assert.Equal(t, "/3/1/2.png", gotPath)
	assert.Equal(t, "mapproxy-seed-test", gotAgent)
}

func TestFetchTileServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s, err := New(Config{URLTemplate: srv.URL + "/{z}/{x}/{y}.png"}, nil)
	require.NoError(t, err)

	_, err = s.FetchTile(context.Background(), grid.TileCoord{Level: 1})
	require.Error(t, err)
	require.ErrorIs(t, err, seeder.ErrSourceUnavailable)
	require.True(t, seeder.IsTransient(err))
}

func TestFetchTileClientErrorIsFatal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s, err := New(Config{URLTemplate: srv.URL + "/{z}/{x}/{y}.png"}, nil)
	require.NoError(t, err)

	_, err = s.FetchTile(context.Background(), grid.TileCoord{Level: 1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status 404")
	require.False(t, seeder.IsTransient(err))
}

func TestFetchTileTransportErrorIsTransient(t *testing.T) {
	t.Parallel()

	// A server that is already closed yields a connection error.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	s, err := New(Config{URLTemplate: url + "/{z}/{x}/{y}.png"}, nil)
	require.NoError(t, err)

	_, err = s.FetchTile(context.Background(), grid.TileCoord{Level: 1})
	require.Error(t, err)
	require.ErrorIs(t, err, seeder.ErrSourceUnavailable)
}
