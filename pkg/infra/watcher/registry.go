package watcher

import (
	"sort"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

type builder func(conf map[string]any) (interfaces.Watcher, error)

var builders = map[string]builder{
	"github":          newGitHub,
	"gitlab":          newGitLab,
	"pypi":            newPyPI,
	"npm":             newNPM,
	"dockerhub":       newDockerHub,
	"maven":           newMaven,
	"homebrew":        newHomebrew,
	"wordpress":       newWordPressPlugin,
	"wordpress_theme": newWordPressTheme,
	"apkmirror":       newAPKMirror,
	"apkpure":         newAPKPure,
	"fdroid":          newFdroid,
}

// Build constructs a watcher for the given kind. Constructors are pure given
// their config and perform no network I/O, so built instances can be cached
// and shared across entries.
func Build(kind string, conf map[string]any) (interfaces.Watcher, error) {
	b, ok := builders[kind]
	if !ok {
		return nil, goerr.New("unsupported watcher type",
			goerr.V("type", kind), goerr.V("known", Kinds()), goerr.T(types.ErrTagConfig))
	}

	w, err := b(conf)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build watcher",
			goerr.V("type", kind), goerr.T(types.ErrTagAdapterBuild))
	}
	return w, nil
}

// Kinds returns the registered watcher type names, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(builders))
	for k := range builders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
