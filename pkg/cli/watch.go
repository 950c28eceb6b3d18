package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/relwatch/pkg/cli/config"
	controller "github.com/m-mizutani/relwatch/pkg/controller/http"
	"github.com/m-mizutani/relwatch/pkg/utils/async"
)

// pollGuard serializes poll cycles. Do reports false without running fn when
// a cycle is already in flight.
type pollGuard struct {
	busy atomic.Bool
}

func (g *pollGuard) Do(fn func()) bool {
	if !g.busy.CompareAndSwap(false, true) {
		return false
	}
	defer g.busy.Store(false)
	fn()
	return true
}

func cmdWatch() *cli.Command {
	var (
		srcCfg      config.Source
		schedule    string
		addr        string
		downloadDir string
	)

	flags := append(srcCfg.Flags(),
		&cli.StringFlag{
			Name:        "schedule",
			Usage:       "Cron expression or descriptor for the poll cycle",
			Value:       "@hourly",
			Destination: &schedule,
			Sources:     cli.EnvVars("RELWATCH_SCHEDULE"),
		},
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Health endpoint address (empty to disable)",
			Destination: &addr,
			Sources:     cli.EnvVars("RELWATCH_ADDR"),
		},
		&cli.StringFlag{
			Name:        "download-dir",
			Usage:       "Directory for downloaded assets",
			Value:       "downloads",
			Destination: &downloadDir,
		},
	)

	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"w"},
		Usage:   "Poll repositories on a schedule",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			rt, err := setup(ctx, srcCfg, runOptions{downloadDir: downloadDir})
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			// A slow cycle must not stack on the next tick; overlapping
			// ticks are skipped.
			var guard pollGuard
			var lastPoll atomic.Int64
			poll := func() {
				ran := guard.Do(func() {
					defer lastPoll.Store(time.Now().Unix())

					sum := rt.runner.Run(ctx)
					logger.Info("poll cycle finished",
						slog.Int("processed", sum.Processed),
						slog.Int("updated", sum.Updated),
						slog.Int("up_to_date", sum.UpToDate),
						slog.Int("no_release", sum.NoRelease),
						slog.Int("failed", sum.Failed),
					)
				})
				if !ran {
					logger.Warn("previous poll cycle still running, skipping tick")
				}
			}

			scheduler := cron.New()
			if _, err := scheduler.AddFunc(schedule, poll); err != nil {
				return goerr.Wrap(err, "invalid schedule expression", goerr.V("schedule", schedule))
			}

			var server *controller.Server
			if addr != "" {
				server, err = controller.NewServer(ctx,
					controller.WithAddr(addr),
					controller.WithLastPoll(func() time.Time {
						if ts := lastPoll.Load(); ts > 0 {
							return time.Unix(ts, 0)
						}
						return time.Time{}
					}),
				)
				if err != nil {
					return goerr.Wrap(err, "failed to create health server")
				}
				async.Dispatch(ctx, func(ctx context.Context) error {
					ctxlog.From(ctx).Info("health server starting", slog.String("addr", addr))
					if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						return err
					}
					return nil
				})
			}

			logger.Info("watch loop starting", slog.String("schedule", schedule))
			scheduler.Start()

			// First poll immediately so a fresh deployment reports without
			// waiting for the first tick.
			poll()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			stopCtx := scheduler.Stop()
			<-stopCtx.Done()

			if server != nil {
				shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown health server gracefully")
				}
			}

			logger.Info("watch loop stopped")
			return nil
		},
	}
}
