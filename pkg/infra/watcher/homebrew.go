package watcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

const defaultHomebrewAPI = "https://formulae.brew.sh/api"

// homebrewWatcher resolves the latest stable version of a Homebrew formula
// or cask. Repo format is "name" or "homebrew/cask/name".
type homebrewWatcher struct {
	apiURL string
	http   *httpClient
}

func newHomebrew(conf map[string]any) (interfaces.Watcher, error) {
	return &homebrewWatcher{
		apiURL: strings.TrimSuffix(strVal(conf, "api_url", defaultHomebrewAPI), "/"),
		http:   newHTTPClient(defaultTimeout),
	}, nil
}

func (w *homebrewWatcher) FetchLatest(ctx context.Context, repoID string) (*model.Release, error) {
	if strings.Contains(repoID, "/cask/") || strings.HasPrefix(repoID, "homebrew/cask/") {
		return w.fetchCask(ctx, repoID)
	}
	return w.fetchFormula(ctx, repoID)
}

type brewFormula struct {
	Versions struct {
		Stable string `json:"stable"`
	} `json:"versions"`
	Homepage string `json:"homepage"`
	URLs     struct {
		Stable struct {
			URL string `json:"url"`
		} `json:"stable"`
	} `json:"urls"`
}

func (w *homebrewWatcher) fetchFormula(ctx context.Context, repoID string) (*model.Release, error) {
	name := tapBase(repoID)

	var formula brewFormula
	if err := w.http.getJSON(ctx, fmt.Sprintf("%s/formula/%s.json", w.apiURL, name), nil, &formula); err != nil {
		return nil, goerr.Wrap(err, "failed to fetch Homebrew formula", goerr.V("formula", name))
	}
	if formula.Versions.Stable == "" {
		return nil, goerr.New("no stable version for Homebrew formula",
			goerr.V("formula", name), goerr.T(types.ErrTagFetch))
	}

	formulaURL := fmt.Sprintf("%s/formula/%s.json", w.apiURL, name)
	pageURL := "https://formulae.brew.sh/formula/" + name
	assets := []model.ReleaseAsset{
		{Name: "Install Command", DownloadURL: "brew install " + name, APIURL: formulaURL},
		{Name: "Homebrew Formula Page", DownloadURL: pageURL, APIURL: pageURL},
	}
	if formula.Homepage != "" {
		assets = append(assets, model.ReleaseAsset{Name: "Project Homepage", DownloadURL: formula.Homepage, APIURL: formula.Homepage})
	}
	if src := formula.URLs.Stable.URL; src != "" {
		assets = append(assets, model.ReleaseAsset{Name: "Source Archive", DownloadURL: src, APIURL: src})
	}

	return &model.Release{Tag: formula.Versions.Stable, Assets: assets}, nil
}

type brewCask struct {
	Version  string `json:"version"`
	Homepage string `json:"homepage"`
	URL      string `json:"url"`
}

func (w *homebrewWatcher) fetchCask(ctx context.Context, repoID string) (*model.Release, error) {
	name := tapBase(repoID)

	caskURL := fmt.Sprintf("%s/cask/%s.json", w.apiURL, name)
	var cask brewCask
	if err := w.http.getJSON(ctx, caskURL, nil, &cask); err != nil {
		return nil, goerr.Wrap(err, "failed to fetch Homebrew cask", goerr.V("cask", name))
	}
	if cask.Version == "" {
		return nil, goerr.New("no version for Homebrew cask",
			goerr.V("cask", name), goerr.T(types.ErrTagFetch))
	}

	pageURL := "https://formulae.brew.sh/cask/" + name
	assets := []model.ReleaseAsset{
		{Name: "Install Command", DownloadURL: "brew install --cask " + name, APIURL: caskURL},
		{Name: "Homebrew Cask Page", DownloadURL: pageURL, APIURL: pageURL},
	}
	if cask.Homepage != "" {
		assets = append(assets, model.ReleaseAsset{Name: "Application Homepage", DownloadURL: cask.Homepage, APIURL: cask.Homepage})
	}
	if cask.URL != "" {
		assets = append(assets, model.ReleaseAsset{Name: "Direct Download", DownloadURL: cask.URL, APIURL: cask.URL})
	}

	return &model.Release{Tag: cask.Version, Assets: assets}, nil
}

// tapBase strips a tap prefix: "homebrew/cask/docker" -> "docker". Custom
// taps beyond homebrew/core and homebrew/cask are not queryable through the
// formulae API.
func tapBase(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
