package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures by the phase they occurred in. The runner and
// the state machine use them to decide logging detail; none of them is fatal
// beyond the entry being processed.
var (
	ErrTagConfig       = goerr.NewTag("config")
	ErrTagAdapterBuild = goerr.NewTag("adapter_build")
	ErrTagFetch        = goerr.NewTag("fetch")
	ErrTagPersistence  = goerr.NewTag("persistence")
	ErrTagNotify       = goerr.NewTag("notify")
	ErrTagDownload     = goerr.NewTag("download")
)

// ErrNoRelease signals that an upstream source has nothing to report for a
// repository. Watchers wrap this sentinel so the processor can distinguish
// "nothing there" (silent skip) from a fetch failure (logged error).
var ErrNoRelease = goerr.New("no release found")
