package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/zstadler/mapproxy/internal/grid"
)

// GCSConfig captures the parameters for the Cloud Storage tile store.
type GCSConfig struct {
	Bucket string `mapstructure:"bucket" yaml:"bucket"`
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
}

// GCSStore keeps tiles as objects in a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore wraps an existing client.
func NewGCSStore(client *storage.Client, cfg GCSConfig) (*GCSStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &GCSStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *GCSStore) objectName(c grid.TileCoord) string {
	name := fmt.Sprintf("%d/%d/%d.png", c.Level, c.X, c.Y)
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// ModTime reads the object's update time.
func (s *GCSStore) ModTime(ctx context.Context, c grid.TileCoord) (time.Time, bool, error) {
	attrs, err := s.client.Bucket(s.bucket).Object(s.objectName(c)).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("object attrs: %w", err)
	}
	return attrs.Updated, true, nil
}

// Put uploads the tile body.
func (s *GCSStore) Put(ctx context.Context, c grid.TileCoord, data []byte) error {
	writer := s.client.Bucket(s.bucket).Object(s.objectName(c)).NewWriter(ctx)
	writer.ContentType = "image/png"
	if _, err := writer.Write(data); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return fmt.Errorf("write object: %w (close writer: %v)", err, closeErr)
		}
		return fmt.Errorf("write object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}
