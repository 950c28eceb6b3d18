package config

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"

	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

// loadGCS fetches gs://bucket/path/to/config.yaml. Credentials come from the
// ambient GCP environment, or RELWATCH_GCP_CREDENTIALS when set.
func loadGCS(ctx context.Context, parsed *url.URL) ([]byte, error) {
	bucket := parsed.Host
	key := strings.TrimPrefix(parsed.Path, "/")
	if bucket == "" || key == "" {
		return nil, goerr.New("invalid GCS config URL, expected gs://bucket/path/to/config.yaml",
			goerr.V("url", parsed.String()), goerr.T(types.ErrTagConfig))
	}

	var opts []option.ClientOption
	if creds := os.Getenv("RELWATCH_GCP_CREDENTIALS"); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GCS client", goerr.T(types.ErrTagConfig))
	}
	defer client.Close()

	r, err := client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch config from GCS",
			goerr.V("bucket", bucket), goerr.V("key", key), goerr.T(types.ErrTagConfig))
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read GCS config object",
			goerr.V("bucket", bucket), goerr.V("key", key), goerr.T(types.ErrTagConfig))
	}
	return data, nil
}
