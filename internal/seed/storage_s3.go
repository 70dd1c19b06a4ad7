package seed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// defaultEndpointRegion is used when a custom endpoint is set without a
// region. MinIO and most S3-compatible stores accept any region.
const defaultEndpointRegion = "us-east-1"

// S3Config locates a seed bucket on AWS S3 or an S3-compatible store.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // custom endpoint, switches to path-style addressing
	AccessKey string
	SecretKey string
}

// S3Reader fetches seed documents from a bucket.
type S3Reader struct {
	api    *s3.Client
	bucket string
}

// NewS3Reader resolves AWS configuration for cfg. Static keys win over the
// default credential chain when both are given.
func NewS3Reader(ctx context.Context, cfg S3Config) (*S3Reader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 seed requires a bucket")
	}

	region := cfg.Region
	if region == "" && cfg.Endpoint != "" {
		region = defaultEndpointRegion
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		static := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(static))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("resolve aws config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint == "" {
			return
		}
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})
	return &S3Reader{api: api, bucket: cfg.Bucket}, nil
}

// Read downloads one object. A missing key wraps fs.ErrNotExist, as the
// local reader does.
func (r *S3Reader) Read(ctx context.Context, key string) ([]byte, error) {
	obj, err := r.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *s3types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("s3://%s/%s: %w", r.bucket, key, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("s3 get s3://%s/%s: %w", r.bucket, key, err)
	}
	defer obj.Body.Close()
	return readCapped(obj.Body, "s3://"+r.bucket+"/"+key)
}
