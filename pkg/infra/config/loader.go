// Package config loads the relwatch configuration document from a local
// file, an HTTP(S) URL, an S3 object, or a GCS object, decodes it from YAML
// or TOML, and resolves ${VAR} environment placeholders in component
// configurations.
package config

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

// Load reads the configuration from source, dispatching on its URL scheme.
// Supported sources: plain file paths, http(s)://, s3://bucket/key and
// gs://bucket/key. The format is chosen by file extension: .toml is TOML,
// everything else is parsed as YAML.
func Load(ctx context.Context, source string) (*model.Config, error) {
	parsed, err := url.Parse(source)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid config source", goerr.V("source", source), goerr.T(types.ErrTagConfig))
	}

	var data []byte
	switch parsed.Scheme {
	case "s3":
		data, err = loadS3(ctx, parsed)
	case "gs":
		data, err = loadGCS(ctx, parsed)
	case "http", "https":
		data, err = loadHTTP(ctx, source)
	default:
		data, err = loadLocal(source)
	}
	if err != nil {
		return nil, err
	}

	cfg, err := decode(source, data)
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(source string, data []byte) (*model.Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, goerr.New("config source is empty", goerr.V("source", source), goerr.T(types.ErrTagConfig))
	}

	var cfg model.Config
	if strings.EqualFold(path.Ext(source), ".toml") {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, goerr.Wrap(err, "invalid TOML config", goerr.V("source", source), goerr.T(types.ErrTagConfig))
		}
		return &cfg, nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "invalid YAML config", goerr.V("source", source), goerr.T(types.ErrTagConfig))
	}
	return &cfg, nil
}

func validate(cfg *model.Config) error {
	if len(cfg.Repos) == 0 {
		return goerr.New("config has no repos", goerr.T(types.ErrTagConfig))
	}
	for i, entry := range cfg.Repos {
		if entry.Repo == "" || entry.Watcher == "" {
			return goerr.New("repo entry requires both repo and watcher",
				goerr.V("index", i), goerr.T(types.ErrTagConfig))
		}
	}
	if cfg.Persistence.Type == "" {
		return goerr.New("persistence type is required", goerr.T(types.ErrTagConfig))
	}
	// Unknown notifier formats are not fatal here; notifier construction
	// falls back to text with a warning.
	return nil
}
