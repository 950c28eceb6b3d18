// Package fetch downloads release assets to local disk for re-upload to
// notification channels.
package fetch

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenk/backoff"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

const (
	chunkSize    = 8 * 1024
	maxRetries   = 4 // 5 attempts total
	baseInterval = 2 * time.Second
	maxInterval  = 10 * time.Second
)

type Downloader struct {
	client       *http.Client
	baseInterval time.Duration
	maxInterval  time.Duration
}

var _ interfaces.AssetDownloader = (*Downloader)(nil)

type Option func(*Downloader)

// WithRetryInterval overrides the backoff timing, mainly for tests.
func WithRetryInterval(base, max time.Duration) Option {
	return func(d *Downloader) {
		d.baseInterval = base
		d.maxInterval = max
	}
}

func New(opts ...Option) *Downloader {
	d := &Downloader{
		client:       &http.Client{Timeout: 60 * time.Second},
		baseInterval: baseInterval,
		maxInterval:  maxInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download streams url into dest, retrying transient failures with
// exponential backoff. Any 4xx or 5xx status aborts immediately since
// retrying a rejected request only burns the budget.
func (d *Downloader) Download(ctx context.Context, url, dest, token string) error {
	op := func() error {
		return d.fetch(ctx, url, dest, token)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.baseInterval
	bo.MaxInterval = d.maxInterval
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0

	if err := backoff.Retry(op, backoff.WithMaxRetries(backoff.WithContext(bo, ctx), maxRetries)); err != nil {
		return goerr.Wrap(err, "failed to download asset",
			goerr.V("url", url), goerr.V("dest", dest), goerr.T(types.ErrTagDownload))
	}
	return nil
}

func (d *Downloader) fetch(ctx context.Context, url, dest, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(goerr.Wrap(err, "failed to build download request", goerr.T(types.ErrTagDownload)))
	}
	if token != "" {
		req.Header.Set("Authorization", "token "+token)
	}
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := d.client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "download request failed", goerr.T(types.ErrTagDownload))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return backoff.Permanent(goerr.New("upstream refused download",
			goerr.V("status", resp.StatusCode), goerr.T(types.ErrTagDownload)))
	}

	f, err := os.Create(dest)
	if err != nil {
		return backoff.Permanent(goerr.Wrap(err, "failed to create destination file",
			goerr.V("dest", dest), goerr.T(types.ErrTagDownload)))
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(f, resp.Body, buf); err != nil {
		return goerr.Wrap(err, "failed while streaming asset", goerr.T(types.ErrTagDownload))
	}
	return nil
}
