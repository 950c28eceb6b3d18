package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

// Summary tallies the outcomes of one poll cycle.
type Summary struct {
	Processed int
	Updated   int
	UpToDate  int
	NoRelease int
	Failed    int
}

// Runner walks the configured entries through the processor. Entries run
// sequentially; a failed entry is counted and the cycle moves on.
type Runner struct {
	cfg       *model.Config
	proc      *Processor
	errorHook func(error)
}

type RunnerOption func(*Runner)

// WithErrorHook registers a callback invoked with every per-entry failure,
// used to forward errors to crash reporting.
func WithErrorHook(hook func(error)) RunnerOption {
	return func(r *Runner) { r.errorHook = hook }
}

func NewRunner(cfg *model.Config, proc *Processor, opts ...RunnerOption) *Runner {
	r := &Runner{cfg: cfg, proc: proc}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls every configured entry once and returns the tally.
func (r *Runner) Run(ctx context.Context) Summary {
	var sum Summary
	for _, entry := range r.cfg.Repos {
		sum.Processed++
		outcome, err := r.proc.ProcessEntry(ctx, entry)
		if err != nil {
			sum.Failed++
			ctxlog.From(ctx).Error("failed to process entry",
				"repo", entry.Repo, "watcher", entry.Watcher, "error", err)
			if r.errorHook != nil {
				r.errorHook(err)
			}
			continue
		}
		switch outcome {
		case OutcomeUpdated, OutcomeForced:
			sum.Updated++
		case OutcomeUpToDate:
			sum.UpToDate++
		case OutcomeNoRelease:
			sum.NoRelease++
		}
	}
	return sum
}

// RunOne polls a single repository. When kind is empty the entry must exist
// in the configuration; with an explicit kind an ad-hoc entry is built,
// reusing a configured watcher definition of that kind when one exists.
func (r *Runner) RunOne(ctx context.Context, repoID, kind string) (Outcome, error) {
	if kind == "" {
		for _, entry := range r.cfg.Repos {
			if entry.Repo == repoID {
				return r.runTracked(ctx, entry)
			}
		}
		return OutcomeFailed, goerr.New("repository not found in configuration",
			goerr.V("repo", repoID), goerr.T(types.ErrTagConfig))
	}

	entry := model.RepoEntry{Repo: repoID, Watcher: kind}
	if _, ok := r.cfg.Watchers[kind]; !ok {
		watcherKey := ""
		for key, def := range r.cfg.Watchers {
			if def.Type == kind {
				watcherKey = key
				break
			}
		}
		if watcherKey != "" {
			entry.Watcher = watcherKey
		} else {
			// No matching definition; register a synthetic one so the
			// processor can resolve it.
			r.cfg.Watchers[kind] = model.WatcherDef{Type: kind}
		}
	}
	return r.runTracked(ctx, entry)
}

func (r *Runner) runTracked(ctx context.Context, entry model.RepoEntry) (Outcome, error) {
	outcome, err := r.proc.ProcessEntry(ctx, entry)
	if err != nil && r.errorHook != nil {
		r.errorHook(err)
	}
	return outcome, err
}
