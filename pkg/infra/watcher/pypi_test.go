package watcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/relwatch/pkg/infra/watcher"
)

func TestPyPIFetchLatest(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Path).Equal("/pypi/requests/json")
		_, _ = w.Write([]byte(`{
			"info": {"version": "2.32.3"},
			"urls": [
				{"filename": "requests-2.32.3-py3-none-any.whl", "url": "https://files.pythonhosted.org/requests.whl"},
				{"filename": "requests-2.32.3.tar.gz", "url": "https://files.pythonhosted.org/requests.tar.gz"}
			]
		}`))
	}))
	defer srv.Close()

	w, err := watcher.Build("pypi", map[string]any{"base_url": srv.URL})
	gt.NoError(t, err)

	rel, err := w.FetchLatest(ctx, "requests")
	gt.NoError(t, err)
	gt.Value(t, rel.Tag).Equal("2.32.3")
	gt.Number(t, len(rel.Assets)).Equal(2)
	gt.Value(t, rel.Assets[0].Name).Equal("requests-2.32.3-py3-none-any.whl")
	gt.Value(t, rel.SourceURL).Equal("https://pypi.org/project/requests/")
}

func TestPyPIMissingVersion(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"info": {}, "urls": []}`))
	}))
	defer srv.Close()

	w, err := watcher.Build("pypi", map[string]any{"base_url": srv.URL})
	gt.NoError(t, err)

	_, err = w.FetchLatest(ctx, "ghost-package")
	gt.Error(t, err)
}

func TestPyPINotFound(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	w, err := watcher.Build("pypi", map[string]any{"base_url": srv.URL})
	gt.NoError(t, err)

	_, err = w.FetchLatest(ctx, "no-such-package")
	gt.Error(t, err)
}
