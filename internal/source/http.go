// Package source fetches raw tiles from an XYZ tile endpoint.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zstadler/mapproxy/internal/grid"
	"github.com/zstadler/mapproxy/internal/seeder"
)

// Config controls the HTTP tile source.
type Config struct {
	// URLTemplate contains {z}, {x}, and {y} placeholders.
	URLTemplate string `mapstructure:"url_template" yaml:"url_template"`
	UserAgent   string `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout     time.Duration
}

// HTTPSource fetches tiles over HTTP. Failures are mapped onto the seeder's
// error taxonomy: transport and 5xx problems are seeder.ErrSourceUnavailable,
// truncated bodies are seeder.ErrIOFailure, and client errors are fatal.
type HTTPSource struct {
	client      *http.Client
	urlTemplate string
	userAgent   string
	logger      *zap.Logger
}

// New builds an HTTPSource.
func New(cfg Config, logger *zap.Logger) (*HTTPSource, error) {
	if !strings.Contains(cfg.URLTemplate, "{z}") ||
		!strings.Contains(cfg.URLTemplate, "{x}") ||
		!strings.Contains(cfg.URLTemplate, "{y}") {
		return nil, fmt.Errorf("url template %q must contain {z}, {x} and {y}", cfg.URLTemplate)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSource{
		client:      &http.Client{Timeout: cfg.Timeout},
		urlTemplate: cfg.URLTemplate,
		userAgent:   cfg.UserAgent,
		logger:      logger,
	}, nil
}

// TileURL expands the template for one coordinate.
func (s *HTTPSource) TileURL(c grid.TileCoord) string {
	r := strings.NewReplacer(
		"{z}", fmt.Sprint(c.Level),
		"{x}", fmt.Sprint(c.X),
		"{y}", fmt.Sprint(c.Y),
	)
	return r.Replace(s.urlTemplate)
}

// FetchTile downloads one tile body.
func (s *HTTPSource) FetchTile(ctx context.Context, c grid.TileCoord) ([]byte, error) {
	url := s.TileURL(c)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build tile request %s: %w", url, err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", seeder.ErrSourceUnavailable, url, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Debug("close tile response body", zap.Error(cerr))
		}
	}()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s answered %d", seeder.ErrSourceUnavailable, url, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", seeder.ErrIOFailure, url, err)
	}
	return body, nil
}
