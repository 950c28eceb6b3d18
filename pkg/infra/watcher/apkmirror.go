package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

const (
	defaultAPKMirrorAPI = "https://www.apkmirror.com/wp-json/apkm/v1/app_exists/"

	// Public credential shipped by apkupdater, widely used for read-only
	// app_exists queries.
	defaultAPKMirrorAuth = "YXBpLWFwa3VwZGF0ZXI6cm01cmNmcnVVakt5MDRzTXB5TVBKWFc4"
)

// apkMirrorWatcher queries the APKMirror app_exists endpoint for the newest
// release of an Android package. Repo format is the package name, e.g.
// "org.mozilla.firefox".
type apkMirrorWatcher struct {
	apiURL    string
	authToken string
	userAgent string
	http      *httpClient
}

func newAPKMirror(conf map[string]any) (interfaces.Watcher, error) {
	return &apkMirrorWatcher{
		apiURL:    strVal(conf, "api_url", defaultAPKMirrorAPI),
		authToken: strVal(conf, "auth_token", defaultAPKMirrorAuth),
		userAgent: strVal(conf, "user_agent", "relwatch"),
		http:      newHTTPClient(scrapeTimeout),
	}, nil
}

type apkMirrorResponse struct {
	Data []struct {
		Exists  bool `json:"exists"`
		Release *struct {
			Version string `json:"version"`
		} `json:"release"`
		APKs []struct {
			VersionCode json.Number `json:"version_code"`
			Link        string      `json:"link"`
		} `json:"apks"`
	} `json:"data"`
}

func (w *apkMirrorWatcher) FetchLatest(ctx context.Context, repoID string) (*model.Release, error) {
	payload, err := json.Marshal(map[string]any{"pnames": []string{repoID}})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode APKMirror query", goerr.T(types.ErrTagFetch))
	}

	header := http.Header{}
	header.Set("Authorization", "Basic "+w.authToken)
	header.Set("User-Agent", w.userAgent)
	header.Set("Content-Type", "application/json")

	var result apkMirrorResponse
	if err := w.http.requestJSON(ctx, http.MethodPost, w.apiURL, header, payload, &result); err != nil {
		return nil, goerr.Wrap(err, "failed to query APKMirror", goerr.V("package", repoID))
	}

	if len(result.Data) == 0 || !result.Data[0].Exists {
		return nil, goerr.Wrap(types.ErrNoRelease, "package not found on APKMirror",
			goerr.V("package", repoID))
	}
	app := result.Data[0]
	if app.Release == nil || app.Release.Version == "" {
		return nil, goerr.Wrap(types.ErrNoRelease, "package has no release info",
			goerr.V("package", repoID))
	}

	assets := make([]model.ReleaseAsset, 0, len(app.APKs))
	for _, apk := range app.APKs {
		link := apk.Link
		if !strings.HasPrefix(link, "http") {
			link = "https://www.apkmirror.com" + link
		}
		assets = append(assets, model.ReleaseAsset{
			Name:        fmt.Sprintf("%s_%s.apk", repoID, apk.VersionCode.String()),
			DownloadURL: link,
			APIURL:      link,
		})
	}

	return &model.Release{Tag: app.Release.Version, Assets: assets}, nil
}
