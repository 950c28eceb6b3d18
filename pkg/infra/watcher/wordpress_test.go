package watcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/relwatch/pkg/domain/types"
	"github.com/m-mizutani/relwatch/pkg/infra/watcher"
)

func TestWordPressPluginFetchLatest(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Query().Get("action")).Equal("plugin_information")
		gt.Value(t, r.URL.Query().Get("slug")).Equal("akismet")
		_, _ = w.Write([]byte(`{
			"version": "5.3.2",
			"download_link": "https://downloads.wordpress.org/plugin/akismet.5.3.2.zip"
		}`))
	}))
	defer srv.Close()

	w, err := watcher.Build("wordpress", map[string]any{"api_url": srv.URL})
	gt.NoError(t, err)

	rel, err := w.FetchLatest(ctx, "akismet")
	gt.NoError(t, err)
	gt.Value(t, rel.Tag).Equal("5.3.2")
	gt.Number(t, len(rel.Assets)).Equal(1)
	gt.Value(t, rel.Assets[0].Name).Equal("akismet-5.3.2.zip")
	gt.Value(t, rel.SourceURL).Equal("https://wordpress.org/plugins/akismet/")
}

func TestWordPressPluginNotFound(t *testing.T) {
	ctx := context.Background()

	// The plugin directory reports unknown slugs with an error field.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Plugin not found."}`))
	}))
	defer srv.Close()

	w, err := watcher.Build("wordpress", map[string]any{"api_url": srv.URL})
	gt.NoError(t, err)

	_, err = w.FetchLatest(ctx, "no-such-plugin")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrNoRelease))
}

func TestWordPressThemeFetchLatest(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Query().Get("action")).Equal("theme_information")
		gt.Value(t, r.URL.Query().Get("request[slug]")).Equal("astra")
		_, _ = w.Write([]byte(`{
			"version": "4.6.14",
			"download_link": "https://downloads.wordpress.org/theme/astra.4.6.14.zip"
		}`))
	}))
	defer srv.Close()

	w, err := watcher.Build("wordpress_theme", map[string]any{"api_url": srv.URL})
	gt.NoError(t, err)

	rel, err := w.FetchLatest(ctx, "astra")
	gt.NoError(t, err)
	gt.Value(t, rel.Tag).Equal("4.6.14")
	gt.Value(t, rel.Assets[0].Name).Equal("astra-4.6.14.zip")
	gt.Value(t, rel.SourceURL).Equal("https://wordpress.org/themes/astra/")
}

func TestWordPressThemeMissingFields(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version": "1.0.0"}`))
	}))
	defer srv.Close()

	w, err := watcher.Build("wordpress_theme", map[string]any{"api_url": srv.URL})
	gt.NoError(t, err)

	_, err = w.FetchLatest(ctx, "broken-theme")
	gt.Error(t, err)
}
