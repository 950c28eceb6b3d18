package watcher

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

const (
	defaultMavenSearch   = "https://search.maven.org"
	mavenDownloadBaseURL = "https://repo1.maven.org/maven2"
)

// mavenWatcher resolves the latest version of a Maven Central artifact.
// Repo format is "groupId:artifactId".
type mavenWatcher struct {
	baseURL string
	http    *httpClient
}

func newMaven(conf map[string]any) (interfaces.Watcher, error) {
	return &mavenWatcher{
		baseURL: strings.TrimSuffix(strVal(conf, "base_url", defaultMavenSearch), "/"),
		http:    newHTTPClient(defaultTimeout),
	}, nil
}

type mavenSearchResult struct {
	Response struct {
		Docs []struct {
			LatestVersion string `json:"latestVersion"`
			V             string `json:"v"`
		} `json:"docs"`
	} `json:"response"`
}

func (w *mavenWatcher) FetchLatest(ctx context.Context, repoID string) (*model.Release, error) {
	groupID, artifactID, ok := strings.Cut(repoID, ":")
	if !ok {
		return nil, goerr.New("invalid Maven artifact, expected groupId:artifactId",
			goerr.V("artifact", repoID), goerr.T(types.ErrTagFetch))
	}

	query := url.Values{
		"q":    {fmt.Sprintf("g:%s AND a:%s", groupID, artifactID)},
		"rows": {"1"},
		"wt":   {"json"},
		"sort": {"timestamp desc"},
	}
	endpoint := w.baseURL + "/solrsearch/select?" + query.Encode()

	var result mavenSearchResult
	if err := w.http.getJSON(ctx, endpoint, nil, &result); err != nil {
		return nil, goerr.Wrap(err, "failed to search Maven Central", goerr.V("artifact", repoID))
	}
	if len(result.Response.Docs) == 0 {
		return nil, goerr.Wrap(types.ErrNoRelease, "artifact not found on Maven Central",
			goerr.V("artifact", repoID))
	}

	doc := result.Response.Docs[0]
	version := doc.LatestVersion
	if version == "" {
		version = doc.V
	}
	if version == "" {
		return nil, goerr.New("no version information for Maven artifact",
			goerr.V("artifact", repoID), goerr.T(types.ErrTagFetch))
	}

	artifactBase := fmt.Sprintf("%s/%s/%s/%s",
		mavenDownloadBaseURL, strings.ReplaceAll(groupID, ".", "/"), artifactID, version)

	var assets []model.ReleaseAsset
	for _, suffix := range []string{".jar", "-sources.jar", "-javadoc.jar", ".pom"} {
		name := fmt.Sprintf("%s-%s%s", artifactID, version, suffix)
		u := artifactBase + "/" + name
		assets = append(assets, model.ReleaseAsset{Name: name, DownloadURL: u, APIURL: u})
	}
	pageURL := fmt.Sprintf("%s/artifact/%s/%s/%s/jar", w.baseURL, groupID, artifactID, version)
	assets = append(assets, model.ReleaseAsset{Name: "Maven Central Page", DownloadURL: pageURL, APIURL: pageURL})

	return &model.Release{Tag: version, Assets: assets}, nil
}
