// Package usecase implements the poll cycle: resolve the watcher for each
// tracked entry, fetch the latest release, compare it against persisted
// state, notify on change, and commit the new tag.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

// Outcome classifies what happened to a single entry during a poll.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeUpdated
	OutcomeForced
	OutcomeUpToDate
	OutcomeNoRelease
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdated:
		return "updated"
	case OutcomeForced:
		return "forced"
	case OutcomeUpToDate:
		return "up-to-date"
	case OutcomeNoRelease:
		return "no-release"
	default:
		return "failed"
	}
}

// BuildFunc constructs a watcher of the given kind from a resolved
// configuration.
type BuildFunc func(kind string, conf map[string]any) (interfaces.Watcher, error)

// ResolveFunc expands placeholders in a configuration before it reaches a
// watcher constructor.
type ResolveFunc func(conf map[string]any) (map[string]any, error)

type Processor struct {
	watcherDefs map[string]model.WatcherDef
	build       BuildFunc
	resolve     ResolveFunc
	store       interfaces.StateStore
	notifiers   []interfaces.Notifier
	downloader  interfaces.AssetDownloader
	cache       *watcherCache

	uploadAssets bool
	forceNotify  bool
	downloadDir  string
	lookupEnv    func(string) (string, bool)
}

type Option func(*Processor)

func WithNotifiers(notifiers []interfaces.Notifier) Option {
	return func(p *Processor) { p.notifiers = notifiers }
}

func WithDownloader(d interfaces.AssetDownloader) Option {
	return func(p *Processor) { p.downloader = d }
}

func WithUploadAssets(enabled bool) Option {
	return func(p *Processor) { p.uploadAssets = enabled }
}

func WithForceNotify(enabled bool) Option {
	return func(p *Processor) { p.forceNotify = enabled }
}

func WithDownloadDir(dir string) Option {
	return func(p *Processor) { p.downloadDir = dir }
}

func WithEnvResolver(f ResolveFunc) Option {
	return func(p *Processor) { p.resolve = f }
}

// WithLookupEnv replaces the environment lookup, used by tests to control
// the force-notify flag.
func WithLookupEnv(f func(string) (string, bool)) Option {
	return func(p *Processor) { p.lookupEnv = f }
}

func NewProcessor(defs map[string]model.WatcherDef, build BuildFunc, store interfaces.StateStore, opts ...Option) *Processor {
	p := &Processor{
		watcherDefs: defs,
		build:       build,
		store:       store,
		cache:       newWatcherCache(),
		downloadDir: "downloads",
		lookupEnv:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessEntry runs one entry through the full cycle. Failures never escape
// past the entry: errors come back as a value and panics from adapters are
// recovered here.
func (p *Processor) ProcessEntry(ctx context.Context, entry model.RepoEntry) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomeFailed
			err = goerr.New("panic while processing entry",
				goerr.V("repo", entry.Repo), goerr.V("watcher", entry.Watcher), goerr.V("panic", fmt.Sprint(r)))
		}
	}()

	logger := ctxlog.From(ctx).With("repo", entry.Repo, "watcher", entry.Watcher)

	w, conf, err := p.resolveWatcher(entry)
	if err != nil {
		return OutcomeFailed, err
	}

	rel, err := w.FetchLatest(ctx, entry.Repo)
	if err != nil {
		if errors.Is(err, types.ErrNoRelease) {
			logger.Info("no releases found")
			return OutcomeNoRelease, nil
		}
		return OutcomeFailed, goerr.Wrap(err, "failed to fetch latest release", goerr.T(types.ErrTagFetch))
	}
	if rel == nil || rel.Tag == "" {
		// A watcher that reports neither an error nor a tag has nothing
		// to compare against; treat it the same as no release.
		logger.Info("no releases found")
		return OutcomeNoRelease, nil
	}

	key := model.StateKey(entry.Watcher, entry.Repo)
	lastTag, found, err := p.store.GetLastTag(ctx, key)
	if err != nil {
		return OutcomeFailed, goerr.Wrap(err, "failed to read persisted state", goerr.V("key", key))
	}

	force := p.forceNotify
	if !force {
		if v, ok := p.lookupEnv(types.EnvForceNotify); ok && v != "" {
			force = true
		}
	}

	if found && lastTag == rel.Tag {
		if !force {
			logger.Info("already up to date", "tag", rel.Tag)
			return OutcomeUpToDate, nil
		}
		logger.Info("re-notifying without version change", "tag", rel.Tag)
		outcome = OutcomeForced
	} else {
		logger.Info("new release detected", "old", lastTag, "new", rel.Tag)
		outcome = OutcomeUpdated
	}

	attachments, cleanup := p.downloadAssets(ctx, entry, conf, rel)
	defer cleanup()

	p.notifyAll(ctx, entry.Repo, rel, attachments)

	// Notifications already went out; a failed commit means a repeat next
	// run, which the channels tolerate better than a silent miss.
	if err := p.store.SetLastTag(ctx, key, rel.Tag); err != nil {
		logger.Warn("failed to commit state, entry will repeat next poll", "error", err)
	}

	return outcome, nil
}

func (p *Processor) resolveWatcher(entry model.RepoEntry) (interfaces.Watcher, map[string]any, error) {
	def, ok := p.watcherDefs[entry.Watcher]
	if !ok {
		return nil, nil, goerr.New("entry references undefined watcher",
			goerr.V("watcher", entry.Watcher), goerr.V("repo", entry.Repo), goerr.T(types.ErrTagConfig))
	}

	merged := make(map[string]any, len(def.Config)+len(entry.Config))
	for k, v := range def.Config {
		merged[k] = v
	}
	for k, v := range entry.Config {
		merged[k] = v
	}
	if p.resolve != nil {
		resolved, err := p.resolve(merged)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to resolve watcher config",
				goerr.V("watcher", entry.Watcher), goerr.T(types.ErrTagConfig))
		}
		merged = resolved
	}

	cacheKey := entry.Watcher + ":" + confHash(merged)
	w, err := p.cache.getOrBuild(cacheKey, func() (interfaces.Watcher, error) {
		return p.build(def.Type, merged)
	})
	if err != nil {
		return nil, nil, err
	}
	return w, merged, nil
}

// downloadAssets fetches release assets to local disk when uploads are
// enabled for the entry. Individual download failures drop the asset and
// keep going. The returned cleanup removes whatever landed on disk and must
// run whether or not notification succeeded.
func (p *Processor) downloadAssets(ctx context.Context, entry model.RepoEntry, conf map[string]any, rel *model.Release) ([]string, func()) {
	logger := ctxlog.From(ctx).With("repo", entry.Repo)

	upload := p.uploadAssets
	if v, ok := conf["upload_assets"].(bool); ok {
		upload = v
	}
	if !upload || p.downloader == nil || len(rel.Assets) == 0 {
		return nil, func() {}
	}

	if err := os.MkdirAll(p.downloadDir, 0o755); err != nil {
		logger.Warn("failed to create download directory", "dir", p.downloadDir, "error", err)
		return nil, func() {}
	}

	token, _ := conf["token"].(string)

	var paths []string
	for _, asset := range rel.Assets {
		// Asset names come from upstream; never let one escape the
		// download directory.
		dest := filepath.Join(p.downloadDir, filepath.Base(asset.Name))
		if err := p.downloader.Download(ctx, asset.APIURL, dest, token); err != nil {
			logger.Warn("failed to download asset", "asset", asset.Name, "error", err)
			continue
		}
		paths = append(paths, dest)
	}

	cleanup := func() {
		for _, path := range paths {
			if err := os.Remove(path); err != nil {
				logger.Warn("failed to remove downloaded asset", "path", path, "error", err)
			}
		}
	}
	return paths, cleanup
}

// notifyAll renders and delivers to every channel. One broken notifier must
// not keep the rest from delivering, so each send is isolated.
func (p *Processor) notifyAll(ctx context.Context, repoID string, rel *model.Release, attachments []string) {
	logger := ctxlog.From(ctx).With("repo", repoID)

	for _, n := range p.notifiers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("notifier panicked", "notifier", n.Name(), "panic", fmt.Sprint(r))
				}
			}()

			msg := model.Message{
				Title:       "New Release: " + repoID,
				Body:        RenderMessage(repoID, rel, n.Format()),
				Attachments: attachments,
			}
			if err := n.Send(ctx, msg); err != nil {
				logger.Error("notification failed", "notifier", n.Name(), "error", err)
				return
			}
			logger.Info("notification sent", "notifier", n.Name())
		}()
	}
}
