package interfaces

import (
	"context"

	"github.com/m-mizutani/relwatch/pkg/domain/model"
)

// Notifier delivers one rendered message through a single transport.
type Notifier interface {
	Send(ctx context.Context, msg model.Message) error

	// Format is the render format this transport prefers for message bodies.
	Format() model.RenderFormat

	// Name identifies the transport in logs.
	Name() string
}
