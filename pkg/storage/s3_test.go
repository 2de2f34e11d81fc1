package storage

import (
	"context"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

// TestS3Backend runs the backend contract against MinIO or any
// S3-compatible endpoint
func TestS3Backend(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping S3 integration test (set INTEGRATION_TEST=true to run)")
	}

	ctx := context.Background()
	cfg := S3Config{
		Bucket:    "camnotify-test",
		Region:    "us-east-1",
		Key:       "test/" + t.Name() + ".json",
		Endpoint:  envOr("MINIO_ENDPOINT", "http://localhost:9000"),
		AccessKey: envOr("MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey: envOr("MINIO_SECRET_KEY", "minioadmin"),
	}

	createTestBucket(t, cfg)

	backend, err := NewS3Backend(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = backend.Close() }()

	t.Cleanup(func() {
		_, _ = backend.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(cfg.Bucket),
			Key:    aws.String(cfg.Key),
		})
	})

	testBackendInterface(t, backend)
}

// createTestBucket creates the bucket if it doesn't exist
func createTestBucket(t *testing.T, cfg S3Config) {
	t.Helper()
	ctx := context.Background()

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	require.NoError(t, err)

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err == nil {
		return
	}
	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(cfg.Bucket)})
	require.NoError(t, err)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
