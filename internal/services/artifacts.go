package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ObjectPutter is the slice of the S3 client the artifact store needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ArtifactStore uploads build artifacts to the deployment bucket.
type ArtifactStore struct {
	client ObjectPutter
	bucket string
}

func NewArtifactStore(client ObjectPutter, bucket string) *ArtifactStore {
	return &ArtifactStore{
		client: client,
		bucket: bucket,
	}
}

// Bucket returns the artifact bucket name.
func (a *ArtifactStore) Bucket() string { return a.bucket }

// Upload writes one artifact object and returns its S3 URI.
func (a *ArtifactStore) Upload(ctx context.Context, key string, body io.Reader) (uri string, err error) {
	logger := zerolog.Ctx(ctx)

	defer func(begin time.Time) {
		logger.Info().
			Interface("error", err).
			Str("bucket", a.bucket).
			Str("key", key).
			Dur("duration", time.Since(begin)).
			Msg("Uploaded artifact")
	}(time.Now())

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact %s to bucket %s: %w", key, a.bucket, err)
	}

	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}
