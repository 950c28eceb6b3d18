package config

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

// loadS3 fetches s3://bucket/path/to/config.yaml. Credentials, region and an
// optional custom endpoint (for S3-compatible stores) come from the standard
// AWS environment variables plus S3_ENDPOINT_URL.
func loadS3(ctx context.Context, parsed *url.URL) ([]byte, error) {
	bucket := parsed.Host
	key := strings.TrimPrefix(parsed.Path, "/")
	if bucket == "" || key == "" {
		return nil, goerr.New("invalid S3 config URL, expected s3://bucket/path/to/config.yaml",
			goerr.V("url", parsed.String()), goerr.T(types.ErrTagConfig))
	}

	opts := s3.Options{
		Region: os.Getenv("AWS_REGION"),
	}
	if endpoint := os.Getenv("S3_ENDPOINT_URL"); endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	if accessKey := os.Getenv("AWS_ACCESS_KEY_ID"); accessKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(
			accessKey, os.Getenv("AWS_SECRET_ACCESS_KEY"), "")
	}

	client := s3.New(opts)
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch config from S3",
			goerr.V("bucket", bucket), goerr.V("key", key), goerr.T(types.ErrTagConfig))
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read S3 config object",
			goerr.V("bucket", bucket), goerr.V("key", key), goerr.T(types.ErrTagConfig))
	}
	return data, nil
}
