package config_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/infra/config"
)

const validYAML = `
repos:
  - repo: owner/repo
    watcher: gh
  - repo: requests
    watcher: py
    config:
      token: override
watchers:
  gh:
    type: github
    config:
      token: ${GITHUB_TOKEN}
  py:
    type: pypi
persistence:
  type: file
  config:
    path: state.json
notifiers:
  - type: webhook
    format: markdown
    config:
      url: https://example.com/hook
upload_assets: true
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	ctx := context.Background()

	cfg, err := config.Load(ctx, writeTemp(t, "config.yaml", validYAML))
	gt.NoError(t, err)

	gt.Number(t, len(cfg.Repos)).Equal(2)
	gt.Value(t, cfg.Repos[0].Repo).Equal("owner/repo")
	gt.Value(t, cfg.Repos[1].Config["token"]).Equal("override")
	gt.Value(t, cfg.Watchers["gh"].Type).Equal("github")
	gt.Value(t, cfg.Persistence.Type).Equal("file")
	gt.Number(t, len(cfg.Notifiers)).Equal(1)
	gt.Value(t, cfg.Notifiers[0].Format).Equal(model.RenderMarkdown)
	gt.True(t, cfg.UploadAssets)
}

func TestLoadTOML(t *testing.T) {
	ctx := context.Background()

	toml := `
upload_assets = false

[[repos]]
repo = "owner/repo"
watcher = "gh"

[watchers.gh]
type = "github"

[persistence]
type = "file"
`
	cfg, err := config.Load(ctx, writeTemp(t, "config.toml", toml))
	gt.NoError(t, err)
	gt.Number(t, len(cfg.Repos)).Equal(1)
	gt.Value(t, cfg.Watchers["gh"].Type).Equal("github")
}

func TestLoadHTTP(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(validYAML))
	}))
	defer srv.Close()

	cfg, err := config.Load(ctx, srv.URL+"/config.yaml")
	gt.NoError(t, err)
	gt.Number(t, len(cfg.Repos)).Equal(2)
}

func TestLoadHTTPError(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := config.Load(ctx, srv.URL+"/config.yaml")
	gt.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	gt.Error(t, err)
}

func TestLoadRejectsEmptyRepos(t *testing.T) {
	content := `
repos: []
persistence:
  type: file
`
	_, err := config.Load(context.Background(), writeTemp(t, "config.yaml", content))
	gt.Error(t, err)
}

func TestLoadRejectsMissingPersistence(t *testing.T) {
	content := `
repos:
  - repo: owner/repo
    watcher: gh
`
	_, err := config.Load(context.Background(), writeTemp(t, "config.yaml", content))
	gt.Error(t, err)
}

func TestLoadRejectsEntryWithoutWatcher(t *testing.T) {
	content := `
repos:
  - repo: owner/repo
persistence:
  type: file
`
	_, err := config.Load(context.Background(), writeTemp(t, "config.yaml", content))
	gt.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := config.Load(context.Background(), writeTemp(t, "config.yaml", "repos: ["))
	gt.Error(t, err)
}
