package config

import (
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

// Source holds the location of the tracking configuration. Local paths, and
// http(s)://, s3:// and gs:// URLs are accepted.
type Source struct {
	Path string
}

// Flags returns CLI flags for config source
func (c *Source) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Config path or URL (local file, http(s), s3, gs)",
			Value:       "config.yaml",
			Destination: &c.Path,
			Sources:     cli.EnvVars(types.EnvConfigSource),
		},
	}
}
