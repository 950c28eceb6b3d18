package persistence

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

// New builds the state store named by the persistence config. Unlike
// watchers and notifiers, a store that cannot be constructed aborts the run:
// polling without state would re-notify every entry.
func New(ctx context.Context, def model.PersistenceDef) (interfaces.StateStore, error) {
	switch def.Type {
	case "file":
		return newFileStore(def.Config)
	case "redis":
		return newRedisStore(def.Config)
	case "firestore":
		return newFirestoreStore(ctx, def.Config)
	default:
		return nil, goerr.New("unknown persistence type",
			goerr.V("type", def.Type), goerr.T(types.ErrTagConfig))
	}
}
