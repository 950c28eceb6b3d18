package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/relwatch/pkg/cli/config"
	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	infraconfig "github.com/m-mizutani/relwatch/pkg/infra/config"
	"github.com/m-mizutani/relwatch/pkg/infra/fetch"
	"github.com/m-mizutani/relwatch/pkg/infra/notify"
	"github.com/m-mizutani/relwatch/pkg/infra/persistence"
	"github.com/m-mizutani/relwatch/pkg/infra/watcher"
	"github.com/m-mizutani/relwatch/pkg/usecase"
)

// runtime bundles everything a poll needs. Close releases the state store.
type runtime struct {
	cfg    *model.Config
	store  interfaces.StateStore
	runner *usecase.Runner
}

func (r *runtime) Close(ctx context.Context) {
	if err := r.store.Close(); err != nil {
		ctxlog.From(ctx).Warn("failed to close state store", "error", err)
	}
}

type runOptions struct {
	forceNotify bool
	downloadDir string
}

// setup loads the tracking configuration and assembles the poll pipeline.
// A state store that cannot be built aborts the run: polling without state
// would re-notify every entry.
func setup(ctx context.Context, src config.Source, opts runOptions) (*runtime, error) {
	cfg, err := infraconfig.Load(ctx, src.Path)
	if err != nil {
		return nil, err
	}

	persistConf, err := infraconfig.ResolveEnv(cfg.Persistence.Config, false)
	if err != nil {
		return nil, err
	}
	cfg.Persistence.Config = persistConf

	store, err := persistence.New(ctx, cfg.Persistence)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build state store")
	}

	notifiers := notify.BuildAll(ctx, cfg.Notifiers)

	procOpts := []usecase.Option{
		usecase.WithNotifiers(notifiers),
		usecase.WithDownloader(fetch.New()),
		usecase.WithUploadAssets(cfg.UploadAssets),
		usecase.WithEnvResolver(func(conf map[string]any) (map[string]any, error) {
			return infraconfig.ResolveEnv(conf, false)
		}),
		usecase.WithForceNotify(opts.forceNotify),
	}
	if opts.downloadDir != "" {
		procOpts = append(procOpts, usecase.WithDownloadDir(opts.downloadDir))
	}

	proc := usecase.NewProcessor(cfg.Watchers, watcher.Build, store, procOpts...)
	runner := usecase.NewRunner(cfg, proc, usecase.WithErrorHook(errorHookFrom(ctx)))

	return &runtime{cfg: cfg, store: store, runner: runner}, nil
}

func cmdRun() *cli.Command {
	var (
		srcCfg      config.Source
		repoID      string
		watcherKind string
		forceNotify bool
		downloadDir string
	)

	flags := append(srcCfg.Flags(),
		&cli.StringFlag{
			Name:        "repo",
			Usage:       "Poll only this repository identifier",
			Destination: &repoID,
		},
		&cli.StringFlag{
			Name:        "watcher",
			Usage:       "Watcher kind or key for --repo (defaults to config lookup)",
			Destination: &watcherKind,
		},
		&cli.BoolFlag{
			Name:        "force-notify",
			Usage:       "Notify even when the tag is unchanged",
			Destination: &forceNotify,
			Sources:     cli.EnvVars("FORCE_NOTIFY"),
		},
		&cli.StringFlag{
			Name:        "download-dir",
			Usage:       "Directory for downloaded assets",
			Value:       "downloads",
			Destination: &downloadDir,
		},
	)

	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Poll configured repositories once",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			rt, err := setup(ctx, srcCfg, runOptions{forceNotify: forceNotify, downloadDir: downloadDir})
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			if repoID != "" {
				outcome, err := rt.runner.RunOne(ctx, repoID, watcherKind)
				if err != nil {
					return err
				}
				logger.Info("poll finished", slog.String("repo", repoID), slog.String("outcome", outcome.String()))
				return nil
			}

			sum := rt.runner.Run(ctx)
			logger.Info("poll cycle finished",
				slog.Int("processed", sum.Processed),
				slog.Int("updated", sum.Updated),
				slog.Int("up_to_date", sum.UpToDate),
				slog.Int("no_release", sum.NoRelease),
				slog.Int("failed", sum.Failed),
			)
			return nil
		},
	}
}
