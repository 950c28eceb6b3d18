// Package async runs background work detached from request or command
// lifetimes.
package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
)

// Dispatch runs handler in its own goroutine on a fresh background context.
// The logger carried by ctx is preserved, but cancellation is not: the
// caller finishing must not tear down work already in flight. Panics and
// returned errors are logged, never propagated.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := ctxlog.With(context.Background(), ctxlog.From(ctx))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ctxlog.From(bgCtx).Error("panic in async handler",
					"recover", r,
					"stack", string(debug.Stack()))
			}
		}()

		if err := handler(bgCtx); err != nil {
			ctxlog.From(bgCtx).Error("error in async handler", "error", err)
		}
	}()
}
