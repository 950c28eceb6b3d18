package watcher

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

// gitHubWatcher fetches the latest published release of a GitHub repository.
// Authentication is either a personal access token ("token") or a GitHub App
// installation ("app_id", "installation_id", "private_key_path").
type gitHubWatcher struct {
	client *github.Client
}

func newGitHub(conf map[string]any) (interfaces.Watcher, error) {
	client, err := buildGitHubClient(conf)
	if err != nil {
		return nil, err
	}

	if baseURL := strVal(conf, "base_url", ""); baseURL != "" {
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid GitHub base URL", goerr.V("base_url", baseURL))
		}
	}

	return &gitHubWatcher{client: client}, nil
}

func buildGitHubClient(conf map[string]any) (*github.Client, error) {
	appID, hasApp := int64Val(conf, "app_id")
	if hasApp {
		installationID, ok := int64Val(conf, "installation_id")
		if !ok {
			return nil, goerr.New("installation_id is required for GitHub App auth")
		}
		keyPath := strVal(conf, "private_key_path", "")
		if keyPath == "" {
			return nil, goerr.New("private_key_path is required for GitHub App auth")
		}
		key, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read GitHub App private key", goerr.V("path", keyPath))
		}
		itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, key)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create GitHub App transport")
		}
		return github.NewClient(&http.Client{Transport: itr, Timeout: defaultTimeout}), nil
	}

	client := github.NewClient(&http.Client{Timeout: defaultTimeout})
	if token := strVal(conf, "token", ""); token != "" {
		client = client.WithAuthToken(token)
	}
	return client, nil
}

func (w *gitHubWatcher) SourceURL(repoID string) string {
	return "https://github.com/" + repoID
}

func (w *gitHubWatcher) FetchLatest(ctx context.Context, repoID string) (*model.Release, error) {
	owner, name, ok := strings.Cut(repoID, "/")
	if !ok {
		return nil, goerr.New("invalid GitHub repository, expected owner/name",
			goerr.V("repo", repoID), goerr.T(types.ErrTagFetch))
	}

	rel, resp, err := w.client.Repositories.GetLatestRelease(ctx, owner, name)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, goerr.Wrap(types.ErrNoRelease, "repository has no published releases",
				goerr.V("repo", repoID))
		}
		return nil, goerr.Wrap(err, "failed to fetch latest GitHub release",
			goerr.V("repo", repoID), goerr.T(types.ErrTagFetch))
	}

	assets := make([]model.ReleaseAsset, 0, len(rel.Assets))
	for _, a := range rel.Assets {
		assets = append(assets, model.ReleaseAsset{
			Name:        a.GetName(),
			DownloadURL: a.GetBrowserDownloadURL(),
			APIURL:      a.GetURL(),
		})
	}

	return &model.Release{
		Tag:       rel.GetTagName(),
		Assets:    assets,
		SourceURL: w.SourceURL(repoID),
	}, nil
}
