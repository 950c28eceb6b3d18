package watcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/net/html"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

const defaultFdroidBase = "https://f-droid.org/en/packages/"

// fdroidWatcher scrapes an F-Droid package page for the most recent build.
// Repo format is the Android package name, e.g. "org.fdroid.fdroid".
type fdroidWatcher struct {
	baseURL   string
	userAgent string
	http      *httpClient
}

func newFdroid(conf map[string]any) (interfaces.Watcher, error) {
	base := strVal(conf, "base_url", defaultFdroidBase)
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &fdroidWatcher{
		baseURL:   base,
		userAgent: strVal(conf, "user_agent", "relwatch"),
		http:      newHTTPClient(scrapeTimeout),
	}, nil
}

func (w *fdroidWatcher) FetchLatest(ctx context.Context, repoID string) (*model.Release, error) {
	pageURL := w.baseURL + repoID + "/"

	header := http.Header{}
	header.Set("User-Agent", w.userAgent)

	doc, err := w.http.getHTML(ctx, pageURL, header)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch F-Droid page", goerr.V("package", repoID))
	}

	// The newest build lives in the <li id="latest"> entry; its anchor name
	// attribute carries the version string.
	latest := findNode(doc, func(n *html.Node) bool {
		return n.Data == "li" && attr(n, "id") == "latest"
	})
	if latest == nil {
		return nil, goerr.Wrap(types.ErrNoRelease, "no latest build section on F-Droid page",
			goerr.V("package", repoID))
	}

	versionAnchor := findNode(latest, func(n *html.Node) bool { return n.Data == "a" })
	if versionAnchor == nil {
		return nil, goerr.New("no version header in latest build section",
			goerr.V("package", repoID), goerr.T(types.ErrTagFetch))
	}
	version := attr(versionAnchor, "name")
	if version == "" {
		version = "unknown"
	}

	container := findNode(latest, func(n *html.Node) bool {
		return n.Data == "p" && hasClass(n, "package-version-download")
	})
	if container == nil {
		return nil, goerr.New("no download container in latest build section",
			goerr.V("package", repoID), goerr.T(types.ErrTagFetch))
	}
	apkLink := findNode(container, func(n *html.Node) bool {
		return n.Data == "a" && strings.Contains(nodeText(n), "Download APK")
	})
	if apkLink == nil {
		return nil, goerr.New("download APK link not found",
			goerr.V("package", repoID), goerr.T(types.ErrTagFetch))
	}

	return &model.Release{
		Tag: version,
		Assets: []model.ReleaseAsset{{
			Name:        repoID,
			DownloadURL: attr(apkLink, "href"),
			APIURL:      pageURL,
		}},
		SourceURL: fmt.Sprintf("https://f-droid.org/en/packages/%s/", repoID),
	}, nil
}
