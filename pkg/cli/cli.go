// Package cli wires the command line surface: one-shot polls, the scheduled
// watch loop, and state store maintenance.
package cli

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/relwatch/pkg/cli/config"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var (
		loggerCfg config.Logger
		sentryCfg config.Sentry
		logger    *slog.Logger
	)

	flags := append(loggerCfg.Flags(), sentryCfg.Flags()...)

	var flushSentry func()

	app := &cli.Command{
		Name:    "relwatch",
		Usage:   "Release and package change tracker",
		Version: types.Version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}
			logger = logger.With("run_id", uuid.NewString())

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)

			hook, flush, err := sentryCfg.Configure()
			if err != nil {
				return nil, err
			}
			flushSentry = flush
			ctx = withErrorHook(ctx, hook)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if flushSentry != nil {
				flushSentry()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdRun(),
			cmdWatch(),
			cmdState(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		return err
	}

	return nil
}

type errorHookKey struct{}

func withErrorHook(ctx context.Context, hook func(error)) context.Context {
	return context.WithValue(ctx, errorHookKey{}, hook)
}

func errorHookFrom(ctx context.Context) func(error) {
	if hook, ok := ctx.Value(errorHookKey{}).(func(error)); ok {
		return hook
	}
	return func(error) {}
}
