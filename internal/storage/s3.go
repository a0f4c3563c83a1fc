package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/yeungadrian/PortfolioBuilderAPI/internal/timeseries"
)

// S3Reader reads parquet snapshots from an S3 (or S3-compatible) bucket.
type S3Reader struct {
	client *s3.Client
	bucket string
}

// NewS3Reader creates a reader over the given bucket. endpoint, when not
// empty, points the client at an S3-compatible store such as MinIO.
func NewS3Reader(cfg aws.Config, bucket, endpoint string) *S3Reader {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Reader{client: client, bucket: bucket}
}

// Read fetches and decodes one snapshot. An absent object key is ErrNotFound;
// other I/O failures propagate as-is.
func (r *S3Reader) Read(ctx context.Context, resourceID string) (*timeseries.Table, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(resourceID),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, resourceID)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", r.bucket, resourceID, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", r.bucket, resourceID, err)
	}

	t, err := decodeParquet(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", resourceID, err)
	}
	return t, nil
}
