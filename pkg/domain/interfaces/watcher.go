package interfaces

import (
	"context"

	"github.com/m-mizutani/relwatch/pkg/domain/model"
)

// Watcher resolves the latest release of one repository from a single
// upstream source. Implementations are stateless per call and perform
// network I/O only inside FetchLatest, never at construction time, so
// instances are safe to cache and reuse across entries.
type Watcher interface {
	// FetchLatest returns the latest release of repoID, or an error wrapping
	// types.ErrNoRelease when the upstream has nothing to report.
	FetchLatest(ctx context.Context, repoID string) (*model.Release, error)
}
