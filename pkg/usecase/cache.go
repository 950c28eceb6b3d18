package usecase

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
)

// watcherCache reuses adapter instances across entries that resolve to the
// same watcher key and effective configuration. Entries only add to the
// cache; instances live for the whole run.
type watcherCache struct {
	mu    sync.Mutex
	cache map[string]interfaces.Watcher
}

func newWatcherCache() *watcherCache {
	return &watcherCache{cache: map[string]interfaces.Watcher{}}
}

func (c *watcherCache) getOrBuild(key string, build func() (interfaces.Watcher, error)) (interfaces.Watcher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if w, ok := c.cache[key]; ok {
		return w, nil
	}
	w, err := build()
	if err != nil {
		return nil, err
	}
	c.cache[key] = w
	return w, nil
}

// confHash folds a resolved configuration into a stable digest. Values hash
// through their fmt representation, so any two configs that print the same
// share an instance.
func confHash(conf map[string]any) string {
	keys := make([]string, 0, len(conf))
	for k := range conf {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%v;", k, conf[k])
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
