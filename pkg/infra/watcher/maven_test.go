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

func TestMavenFetchLatest(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Path).Equal("/solrsearch/select")
		gt.String(t, r.URL.Query().Get("q")).Equal("g:com.google.guava AND a:guava")
		_, _ = w.Write([]byte(`{"response": {"docs": [{"latestVersion": "33.2.1-jre"}]}}`))
	}))
	defer srv.Close()

	w, err := watcher.Build("maven", map[string]any{"base_url": srv.URL})
	gt.NoError(t, err)

	rel, err := w.FetchLatest(ctx, "com.google.guava:guava")
	gt.NoError(t, err)
	gt.Value(t, rel.Tag).Equal("33.2.1-jre")

	// jar, sources, javadoc, pom, plus the search page link.
	gt.Number(t, len(rel.Assets)).Equal(5)
	gt.Value(t, rel.Assets[0].Name).Equal("guava-33.2.1-jre.jar")
	gt.String(t, rel.Assets[0].DownloadURL).
		Equal("https://repo1.maven.org/maven2/com/google/guava/guava/33.2.1-jre/guava-33.2.1-jre.jar")
	gt.Value(t, rel.Assets[4].Name).Equal("Maven Central Page")
}

func TestMavenInvalidCoordinate(t *testing.T) {
	w, err := watcher.Build("maven", map[string]any{})
	gt.NoError(t, err)

	_, err = w.FetchLatest(context.Background(), "no-colon-here")
	gt.Error(t, err)
}

func TestMavenNotFound(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response": {"docs": []}}`))
	}))
	defer srv.Close()

	w, err := watcher.Build("maven", map[string]any{"base_url": srv.URL})
	gt.NoError(t, err)

	_, err = w.FetchLatest(ctx, "org.ghost:artifact")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrNoRelease))
}
