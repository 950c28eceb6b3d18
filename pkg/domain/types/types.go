package types

// Version is the application version, overridden at build time via -ldflags.
var Version = "dev"

const (
	// EnvForceNotify re-triggers notification for an entry even when the
	// fetched tag matches the persisted one. Presence is enough; the value
	// is ignored.
	EnvForceNotify = "FORCE_NOTIFY"

	// EnvConfigSource overrides the configuration source location.
	EnvConfigSource = "RELWATCH_CONFIG"
)
