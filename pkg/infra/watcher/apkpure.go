package watcher

import (
	"context"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/net/html"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

const (
	defaultAPKPureBase = "https://apkpure.net/p"

	// The site blocks default library user agents.
	defaultAPKPureUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
)

// apkPureWatcher scrapes an APKPure app page for the latest version. Repo
// format is the Android package name.
type apkPureWatcher struct {
	baseURL   string
	userAgent string
	http      *httpClient
}

func newAPKPure(conf map[string]any) (interfaces.Watcher, error) {
	return &apkPureWatcher{
		baseURL:   strings.TrimSuffix(strVal(conf, "base_url", defaultAPKPureBase), "/"),
		userAgent: strVal(conf, "user_agent", defaultAPKPureUA),
		http:      newHTTPClient(defaultTimeout),
	}, nil
}

func (w *apkPureWatcher) FetchLatest(ctx context.Context, repoID string) (*model.Release, error) {
	pageURL := w.baseURL + "/" + repoID

	header := http.Header{}
	header.Set("User-Agent", w.userAgent)

	doc, err := w.http.getHTML(ctx, pageURL, header)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch APKPure page", goerr.V("package", repoID))
	}

	nameNode := findNode(doc, func(n *html.Node) bool { return n.Data == "h1" })
	appName := "App name not found"
	if nameNode != nil {
		appName = nodeText(nameNode)
	}

	// The version sits in the additional-info sibling of the
	// "Latest Version" title cell.
	versionLabel := findNode(doc, func(n *html.Node) bool {
		return n.Data == "div" && hasClass(n, "title") && nodeText(n) == "Latest Version"
	})
	if versionLabel == nil {
		return nil, goerr.New("latest version label not found on page",
			goerr.V("package", repoID), goerr.T(types.ErrTagFetch))
	}
	var version string
	for sib := versionLabel.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type == html.ElementNode && sib.Data == "div" && hasClass(sib, "additional-info") {
			version = nodeText(sib)
			break
		}
	}
	if version == "" {
		return nil, goerr.New("latest version value not found on page",
			goerr.V("package", repoID), goerr.T(types.ErrTagFetch))
	}

	return &model.Release{
		Tag: version,
		Assets: []model.ReleaseAsset{{
			Name:        appName,
			DownloadURL: pageURL,
			APIURL:      pageURL,
		}},
	}, nil
}
