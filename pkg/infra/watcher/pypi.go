package watcher

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

const defaultPyPIBase = "https://pypi.org"

// pyPIWatcher resolves the latest version of a PyPI package and its
// distribution files. No authentication required.
type pyPIWatcher struct {
	baseURL string
	http    *httpClient
}

func newPyPI(conf map[string]any) (interfaces.Watcher, error) {
	return &pyPIWatcher{
		baseURL: strVal(conf, "base_url", defaultPyPIBase),
		http:    newHTTPClient(defaultTimeout),
	}, nil
}

func (w *pyPIWatcher) SourceURL(repoID string) string {
	return fmt.Sprintf("https://pypi.org/project/%s/", repoID)
}

type pypiResponse struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
	URLs []struct {
		Filename string `json:"filename"`
		URL      string `json:"url"`
	} `json:"urls"`
}

func (w *pyPIWatcher) FetchLatest(ctx context.Context, repoID string) (*model.Release, error) {
	endpoint := fmt.Sprintf("%s/pypi/%s/json", w.baseURL, repoID)

	var data pypiResponse
	if err := w.http.getJSON(ctx, endpoint, nil, &data); err != nil {
		return nil, goerr.Wrap(err, "failed to fetch PyPI package", goerr.V("package", repoID))
	}

	if data.Info.Version == "" {
		return nil, goerr.New("no version information for PyPI package",
			goerr.V("package", repoID), goerr.T(types.ErrTagFetch))
	}

	assets := make([]model.ReleaseAsset, 0, len(data.URLs))
	for _, f := range data.URLs {
		if f.Filename == "" || f.URL == "" {
			continue
		}
		// PyPI serves the same URL for both download and API access.
		assets = append(assets, model.ReleaseAsset{
			Name:        f.Filename,
			DownloadURL: f.URL,
			APIURL:      f.URL,
		})
	}

	return &model.Release{
		Tag:       data.Info.Version,
		Assets:    assets,
		SourceURL: w.SourceURL(repoID),
	}, nil
}
