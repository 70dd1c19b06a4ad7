// Package seed loads the initial dataset the registry starts from. Every
// loader is read-only: the service never writes back to its seed source.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashaboard/ashaboard/pkg/config"
	"github.com/ashaboard/ashaboard/pkg/dataset"
)

// Loader produces a dataset.
type Loader interface {
	Load(ctx context.Context) (*dataset.Dataset, error)
}

// BlobReader abstracts read access to a blob store.
type BlobReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// BlobLoader reads a single dataset document from a blob store. The format
// follows the key's extension.
type BlobLoader struct {
	Reader BlobReader
	Key    string
}

func (l *BlobLoader) Load(ctx context.Context) (*dataset.Dataset, error) {
	data, err := l.Reader.Read(ctx, l.Key)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", l.Key, err)
	}
	ds, err := dataset.Decode(data, dataset.FormatFromPath(l.Key))
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", l.Key, err)
	}
	return ds, nil
}

// Empty is the loader for deployments without seed data.
type Empty struct{}

func (Empty) Load(context.Context) (*dataset.Dataset, error) {
	return &dataset.Dataset{}, nil
}

// New builds the loader selected by cfg. Loaders holding connections also
// implement io.Closer.
func New(ctx context.Context, cfg config.SeedConfig) (Loader, error) {
	switch cfg.Kind {
	case config.SeedNone, "":
		return Empty{}, nil
	case config.SeedFile:
		if cfg.Path == "" {
			return nil, errors.New("file seed requires a path")
		}
		return &BlobLoader{Reader: NewLocalReader(""), Key: cfg.Path}, nil
	case config.SeedS3:
		r, err := NewS3Reader(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return &BlobLoader{Reader: r, Key: cfg.Key}, nil
	case config.SeedGCS:
		r, err := NewGCSReader(ctx, cfg.Bucket)
		if err != nil {
			return nil, err
		}
		return &BlobLoader{Reader: r, Key: cfg.Key}, nil
	case config.SeedPostgres:
		return NewPostgresLoader(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown seed kind %q", cfg.Kind)
	}
}
