package config

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Sentry holds crash reporting configuration. An empty DSN disables
// reporting entirely.
type Sentry struct {
	DSN string
	Env string
}

// Flags returns CLI flags for Sentry configuration
func (c *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting (empty to disable)",
			Destination: &c.DSN,
			Sources:     cli.EnvVars("SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment name",
			Value:       "production",
			Destination: &c.Env,
			Sources:     cli.EnvVars("SENTRY_ENV"),
		},
	}
}

// Configure initializes the Sentry client and returns an error hook plus a
// flush function. Both are no-ops when no DSN is set.
func (c *Sentry) Configure() (hook func(error), flush func(), err error) {
	if c.DSN == "" {
		return func(error) {}, func() {}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         c.DSN,
		Environment: c.Env,
	}); err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize Sentry")
	}

	hook = func(e error) {
		sentry.CaptureException(e)
	}
	flush = func() {
		sentry.Flush(2 * time.Second)
	}
	return hook, flush, nil
}
