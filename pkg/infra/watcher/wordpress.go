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
	defaultWPPluginAPI = "https://api.wordpress.org/plugins/info/1.2"
	defaultWPThemeAPI  = "https://api.wordpress.org/themes/info/1.2"
)

// wordPressPluginWatcher tracks plugins in the official WordPress directory.
// Repo format is the plugin slug, e.g. "akismet".
type wordPressPluginWatcher struct {
	apiURL string
	http   *httpClient
}

func newWordPressPlugin(conf map[string]any) (interfaces.Watcher, error) {
	return &wordPressPluginWatcher{
		apiURL: strings.TrimSuffix(strVal(conf, "api_url", defaultWPPluginAPI), "/"),
		http:   newHTTPClient(defaultTimeout),
	}, nil
}

type wpInfoResponse struct {
	Error        any    `json:"error"`
	Version      string `json:"version"`
	DownloadLink string `json:"download_link"`
}

func (w *wordPressPluginWatcher) FetchLatest(ctx context.Context, slug string) (*model.Release, error) {
	query := url.Values{
		"action": {"plugin_information"},
		"slug":   {slug},
	}

	var data wpInfoResponse
	if err := w.http.getJSON(ctx, w.apiURL+"/?"+query.Encode(), nil, &data); err != nil {
		return nil, goerr.Wrap(err, "failed to fetch WordPress plugin info", goerr.V("plugin", slug))
	}
	// The directory reports unknown slugs with an error field, not a 404.
	if data.Error != nil {
		return nil, goerr.Wrap(types.ErrNoRelease, "plugin not found in WordPress directory",
			goerr.V("plugin", slug))
	}
	if data.Version == "" {
		return nil, goerr.New("no version information for WordPress plugin",
			goerr.V("plugin", slug), goerr.T(types.ErrTagFetch))
	}

	var assets []model.ReleaseAsset
	if data.DownloadLink != "" {
		assets = append(assets, model.ReleaseAsset{
			Name:        fmt.Sprintf("%s-%s.zip", slug, data.Version),
			DownloadURL: data.DownloadLink,
			APIURL:      data.DownloadLink,
		})
	}

	return &model.Release{
		Tag:       data.Version,
		Assets:    assets,
		SourceURL: fmt.Sprintf("https://wordpress.org/plugins/%s/", slug),
	}, nil
}

// wordPressThemeWatcher tracks themes in the official WordPress directory.
// Repo format is the theme slug, e.g. "twentytwentyfour".
type wordPressThemeWatcher struct {
	apiURL string
	http   *httpClient
}

func newWordPressTheme(conf map[string]any) (interfaces.Watcher, error) {
	return &wordPressThemeWatcher{
		apiURL: strings.TrimSuffix(strVal(conf, "api_url", defaultWPThemeAPI), "/"),
		http:   newHTTPClient(defaultTimeout),
	}, nil
}

func (w *wordPressThemeWatcher) FetchLatest(ctx context.Context, slug string) (*model.Release, error) {
	query := url.Values{
		"action":        {"theme_information"},
		"request[slug]": {slug},
	}

	var data wpInfoResponse
	if err := w.http.getJSON(ctx, w.apiURL+"/?"+query.Encode(), nil, &data); err != nil {
		return nil, goerr.Wrap(err, "failed to fetch WordPress theme info", goerr.V("theme", slug))
	}
	if data.Version == "" || data.DownloadLink == "" {
		return nil, goerr.New("theme info missing version or download link",
			goerr.V("theme", slug), goerr.T(types.ErrTagFetch))
	}

	return &model.Release{
		Tag: data.Version,
		Assets: []model.ReleaseAsset{{
			Name:        fmt.Sprintf("%s-%s.zip", slug, data.Version),
			DownloadURL: data.DownloadLink,
			APIURL:      data.DownloadLink,
		}},
		SourceURL: fmt.Sprintf("https://wordpress.org/themes/%s/", slug),
	}, nil
}
