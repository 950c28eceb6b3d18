package watcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/relwatch/pkg/domain/types"
	"github.com/m-mizutani/relwatch/pkg/infra/watcher"
)

func dockerHubServer(t *testing.T, tagsJSON string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/tags") {
			_, _ = w.Write([]byte(tagsJSON))
			return
		}
		_, _ = w.Write([]byte(`{"name": "nginx"}`))
	}))
}

func TestDockerHubPrefersVersionTag(t *testing.T) {
	ctx := context.Background()

	srv := dockerHubServer(t, `{"results": [
		{"name": "latest"},
		{"name": "nightly"},
		{"name": "1.27.1"},
		{"name": "1.27.0"}
	]}`)
	defer srv.Close()

	w, err := watcher.Build("dockerhub", map[string]any{"base_url": srv.URL})
	gt.NoError(t, err)

	// Official image without namespace resolves under library/.
	rel, err := w.FetchLatest(ctx, "nginx")
	gt.NoError(t, err)
	gt.Value(t, rel.Tag).Equal("1.27.1")
	gt.Number(t, len(rel.Assets)).Equal(1)
	gt.String(t, rel.Assets[0].DownloadURL).Equal("docker pull library/nginx:1.27.1")
}

func TestDockerHubFallsBackToFirstTag(t *testing.T) {
	ctx := context.Background()

	srv := dockerHubServer(t, `{"results": [
		{"name": "stable"},
		{"name": "edge"}
	]}`)
	defer srv.Close()

	w, err := watcher.Build("dockerhub", map[string]any{"base_url": srv.URL})
	gt.NoError(t, err)

	rel, err := w.FetchLatest(ctx, "acme/tool")
	gt.NoError(t, err)
	gt.Value(t, rel.Tag).Equal("stable")
}

func TestDockerHubNoTags(t *testing.T) {
	ctx := context.Background()

	srv := dockerHubServer(t, `{"results": []}`)
	defer srv.Close()

	w, err := watcher.Build("dockerhub", map[string]any{"base_url": srv.URL})
	gt.NoError(t, err)

	_, err = w.FetchLatest(ctx, "acme/empty")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrNoRelease))
}
