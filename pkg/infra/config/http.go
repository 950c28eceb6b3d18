package config

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

var httpLoaderClient = &http.Client{Timeout: 10 * time.Second}

func loadHTTP(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build config request", goerr.V("url", source), goerr.T(types.ErrTagConfig))
	}

	resp, err := httpLoaderClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch config", goerr.V("url", source), goerr.T(types.ErrTagConfig))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected status fetching config",
			goerr.V("url", source), goerr.V("status", resp.StatusCode), goerr.T(types.ErrTagConfig))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config response", goerr.V("url", source), goerr.T(types.ErrTagConfig))
	}
	return data, nil
}
