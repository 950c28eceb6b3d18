package model

// RenderFormat selects how a notification body is rendered.
type RenderFormat string

const (
	RenderText     RenderFormat = "text"
	RenderMarkdown RenderFormat = "markdown"
	RenderHTML     RenderFormat = "html"
)

// Valid reports whether the format is one of the supported render formats.
func (f RenderFormat) Valid() bool {
	switch f {
	case RenderText, RenderMarkdown, RenderHTML:
		return true
	}
	return false
}

// RepoEntry declares one repository/package to watch. Repo plus Watcher form
// the persistence key; two entries sharing both are indistinguishable to the
// state store even if their Config differs.
type RepoEntry struct {
	Repo    string         `yaml:"repo" toml:"repo"`
	Watcher string         `yaml:"watcher" toml:"watcher"`
	Config  map[string]any `yaml:"config" toml:"config"`
}

// WatcherDef is the base definition of one watcher referenced by entries.
type WatcherDef struct {
	Type   string         `yaml:"type" toml:"type"`
	Config map[string]any `yaml:"config" toml:"config"`
}

// NotifierDef configures one notification transport.
type NotifierDef struct {
	Type   string         `yaml:"type" toml:"type"`
	Format RenderFormat   `yaml:"format" toml:"format"`
	Config map[string]any `yaml:"config" toml:"config"`
}

// PersistenceDef configures the state store backend.
type PersistenceDef struct {
	Type   string         `yaml:"type" toml:"type"`
	Config map[string]any `yaml:"config" toml:"config"`
}

// Config is the loaded configuration document.
type Config struct {
	Repos        []RepoEntry           `yaml:"repos" toml:"repos"`
	Watchers     map[string]WatcherDef `yaml:"watchers" toml:"watchers"`
	Persistence  PersistenceDef        `yaml:"persistence" toml:"persistence"`
	Notifiers    []NotifierDef         `yaml:"notifiers" toml:"notifiers"`
	UploadAssets bool                  `yaml:"upload_assets" toml:"upload_assets"`
}

// StateKey returns the change-tracking identity for one entry.
func StateKey(watcherKey, repoID string) string {
	return watcherKey + "_" + repoID
}
