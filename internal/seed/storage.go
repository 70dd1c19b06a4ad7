package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// maxSeedBytes caps a single seed document fetched from a remote store.
const maxSeedBytes = 64 << 20

func readCapped(r io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSeedBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > maxSeedBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", name, maxSeedBytes)
	}
	return data, nil
}

// LocalReader implements BlobReader using the local filesystem.
// Useful for development and testing.
type LocalReader struct {
	BaseDir string
}

// NewLocalReader creates a LocalReader rooted at the given directory. An
// empty directory resolves keys against the working directory.
func NewLocalReader(baseDir string) *LocalReader {
	return &LocalReader{BaseDir: baseDir}
}

func (r *LocalReader) path(key string) string {
	if filepath.IsAbs(key) || r.BaseDir == "" {
		return key
	}
	return filepath.Join(r.BaseDir, key)
}

func (r *LocalReader) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(r.path(key))
	if err != nil {
		return nil, fmt.Errorf("local read %s: %w", key, err)
	}
	return data, nil
}
