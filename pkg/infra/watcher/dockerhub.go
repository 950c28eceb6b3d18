package watcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

const defaultDockerHubBase = "https://hub.docker.com/v2/repositories"

// Tags that never identify a concrete version.
var dockerSkipTags = map[string]bool{
	"latest": true, "main": true, "master": true,
	"dev": true, "development": true, "staging": true, "nightly": true,
}

// dockerHubWatcher picks the most recently pushed version-looking tag of a
// Docker Hub repository. Repo format is "namespace/name"; official images
// may omit the namespace and resolve under "library/".
type dockerHubWatcher struct {
	baseURL string
	token   string
	http    *httpClient
}

func newDockerHub(conf map[string]any) (interfaces.Watcher, error) {
	return &dockerHubWatcher{
		baseURL: strings.TrimSuffix(strVal(conf, "base_url", defaultDockerHubBase), "/"),
		token:   strVal(conf, "token", ""),
		http:    newHTTPClient(defaultTimeout),
	}, nil
}

type dockerTagList struct {
	Results []struct {
		Name string `json:"name"`
	} `json:"results"`
}

func (w *dockerHubWatcher) FetchLatest(ctx context.Context, repoID string) (*model.Release, error) {
	repo := repoID
	if !strings.Contains(repo, "/") {
		repo = "library/" + repo
	}

	header := http.Header{}
	if w.token != "" {
		header.Set("Authorization", "Bearer "+w.token)
	}

	// Existence check first; a missing repository should not read as an
	// empty tag list.
	var repoInfo map[string]any
	if err := w.http.getJSON(ctx, w.baseURL+"/"+repo, header, &repoInfo); err != nil {
		return nil, goerr.Wrap(err, "failed to fetch Docker Hub repository", goerr.V("repo", repo))
	}

	tagsURL := fmt.Sprintf("%s/%s/tags?page_size=50&ordering=-last_updated", w.baseURL, repo)
	var tags dockerTagList
	if err := w.http.getJSON(ctx, tagsURL, header, &tags); err != nil {
		return nil, goerr.Wrap(err, "failed to fetch Docker Hub tags", goerr.V("repo", repo))
	}
	if len(tags.Results) == 0 {
		return nil, goerr.Wrap(types.ErrNoRelease, "repository has no tags", goerr.V("repo", repo))
	}

	tag := pickVersionTag(tags.Results)

	// Images have no conventional downloadable asset; surface the pull
	// command and the tag page instead.
	assets := []model.ReleaseAsset{{
		Name:        fmt.Sprintf("%s:%s", repo, tag),
		DownloadURL: fmt.Sprintf("docker pull %s:%s", repo, tag),
		APIURL:      fmt.Sprintf("https://hub.docker.com/r/%s/tags?name=%s", repo, tag),
	}}

	return &model.Release{Tag: tag, Assets: assets}, nil
}

func pickVersionTag(results []struct {
	Name string `json:"name"`
}) string {
	for _, r := range results {
		if dockerSkipTags[strings.ToLower(r.Name)] {
			continue
		}
		if strings.ContainsAny(r.Name, "0123456789") {
			return r.Name
		}
	}
	return results[0].Name
}
