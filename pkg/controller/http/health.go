package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/m-mizutani/ctxlog"

	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

// handleHealth reports liveness plus the completion time of the most recent
// poll cycle when one has run.
func handleHealth(lastPoll func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := &model.HealthStatus{
			Status:  "healthy",
			Service: "relwatch",
			Version: types.Version,
		}
		if lastPoll != nil {
			if t := lastPoll(); !t.IsZero() {
				status.LastPoll = &t
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			ctxlog.From(r.Context()).Error("Failed to encode health response", "error", err)
		}
	}
}
