package watcher

import (
	"context"
	"net/http"
	"net/url"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

const defaultGitLabAPI = "https://gitlab.com/api/v4"

// gitLabWatcher fetches releases through the GitLab releases API. Works
// against gitlab.com and self-hosted instances via "base_url".
type gitLabWatcher struct {
	baseURL string
	token   string
	http    *httpClient
}

func newGitLab(conf map[string]any) (interfaces.Watcher, error) {
	return &gitLabWatcher{
		baseURL: strVal(conf, "base_url", defaultGitLabAPI),
		token:   strVal(conf, "token", ""),
		http:    newHTTPClient(defaultTimeout),
	}, nil
}

type gitLabRelease struct {
	TagName string `json:"tag_name"`
	Assets  struct {
		Links []struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"links"`
	} `json:"assets"`
}

func (w *gitLabWatcher) FetchLatest(ctx context.Context, repoID string) (*model.Release, error) {
	endpoint := w.baseURL + "/projects/" + url.PathEscape(repoID) + "/releases"

	header := http.Header{}
	if w.token != "" {
		header.Set("PRIVATE-TOKEN", w.token)
	}

	var releases []gitLabRelease
	if err := w.http.getJSON(ctx, endpoint, header, &releases); err != nil {
		return nil, goerr.Wrap(err, "failed to fetch GitLab releases", goerr.V("repo", repoID))
	}
	if len(releases) == 0 {
		return nil, goerr.Wrap(types.ErrNoRelease, "project has no releases", goerr.V("repo", repoID))
	}

	latest := releases[0]
	assets := make([]model.ReleaseAsset, 0, len(latest.Assets.Links))
	for _, link := range latest.Assets.Links {
		// GitLab has no separate API download URL for release links.
		assets = append(assets, model.ReleaseAsset{
			Name:        link.Name,
			DownloadURL: link.URL,
			APIURL:      link.URL,
		})
	}

	return &model.Release{Tag: latest.TagName, Assets: assets}, nil
}
