package seed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	gcs "cloud.google.com/go/storage"
)

// GCSReader fetches seed documents from a Cloud Storage bucket using
// Application Default Credentials.
type GCSReader struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
	name   string
}

func NewGCSReader(ctx context.Context, bucket string) (*GCSReader, error) {
	if bucket == "" {
		return nil, errors.New("gcs seed requires a bucket")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSReader{client: client, bucket: client.Bucket(bucket), name: bucket}, nil
}

// Read downloads one object. A missing object wraps fs.ErrNotExist.
func (r *GCSReader) Read(ctx context.Context, key string) ([]byte, error) {
	obj, err := r.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, fmt.Errorf("gs://%s/%s: %w", r.name, key, fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("gcs open gs://%s/%s: %w", r.name, key, err)
	}
	defer obj.Close()
	return readCapped(obj, "gs://"+r.name+"/"+key)
}

func (r *GCSReader) Close() error {
	return r.client.Close()
}
