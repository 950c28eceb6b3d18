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

const defaultNPMRegistry = "https://registry.npmjs.org"

// npmWatcher resolves the latest dist-tag of an npm package. Repo format is
// "package-name" or "@scope/package-name".
type npmWatcher struct {
	registryURL string
	http        *httpClient
}

func newNPM(conf map[string]any) (interfaces.Watcher, error) {
	return &npmWatcher{
		registryURL: strings.TrimSuffix(strVal(conf, "registry_url", defaultNPMRegistry), "/"),
		http:        newHTTPClient(defaultTimeout),
	}, nil
}

type npmPackage struct {
	Name     string `json:"name"`
	DistTags struct {
		Latest string `json:"latest"`
	} `json:"dist-tags"`
	Versions map[string]struct {
		Dist struct {
			Tarball string `json:"tarball"`
		} `json:"dist"`
	} `json:"versions"`
	Homepage   string `json:"homepage"`
	Repository struct {
		URL string `json:"url"`
	} `json:"repository"`
}

func (w *npmWatcher) FetchLatest(ctx context.Context, repoID string) (*model.Release, error) {
	// Scoped packages need the @ escaped in the registry path.
	endpoint := w.registryURL + "/" + strings.ReplaceAll(repoID, "@", "%40")

	var pkg npmPackage
	if err := w.http.getJSON(ctx, endpoint, nil, &pkg); err != nil {
		return nil, goerr.Wrap(err, "failed to fetch npm package", goerr.V("package", repoID))
	}

	latest := pkg.DistTags.Latest
	if latest == "" {
		return nil, goerr.New("no latest dist-tag for npm package",
			goerr.V("package", repoID), goerr.T(types.ErrTagFetch))
	}
	version, ok := pkg.Versions[latest]
	if !ok {
		return nil, goerr.New("version info missing for npm package",
			goerr.V("package", repoID), goerr.V("version", latest), goerr.T(types.ErrTagFetch))
	}

	displayName := pkg.Name
	if displayName == "" {
		displayName = repoID
	}

	var assets []model.ReleaseAsset
	if tarball := version.Dist.Tarball; tarball != "" {
		assets = append(assets, model.ReleaseAsset{
			Name:        fmt.Sprintf("%s-%s.tgz", displayName, latest),
			DownloadURL: tarball,
			APIURL:      endpoint,
		})
	}

	repoURL := strings.TrimSuffix(strings.TrimPrefix(pkg.Repository.URL, "git+"), ".git")
	if repoURL != "" {
		assets = append(assets, model.ReleaseAsset{
			Name:        "Source Code",
			DownloadURL: repoURL,
			APIURL:      repoURL,
		})
	}
	if pkg.Homepage != "" && pkg.Homepage != repoURL {
		assets = append(assets, model.ReleaseAsset{
			Name:        "Homepage",
			DownloadURL: pkg.Homepage,
			APIURL:      pkg.Homepage,
		})
	}

	return &model.Release{Tag: latest, Assets: assets}, nil
}
