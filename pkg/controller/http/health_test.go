package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	controller "github.com/m-mizutani/relwatch/pkg/controller/http"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
)

func TestHealthEndpoint(t *testing.T) {
	ctx := context.Background()

	server, err := controller.NewServer(ctx, controller.WithAddr("localhost:0"))
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %v, want %v", w.Code, http.StatusOK)
	}

	var status model.HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if status.Status != "healthy" {
		t.Errorf("Status = %v, want healthy", status.Status)
	}

	if status.Service != "relwatch" {
		t.Errorf("Service = %v, want relwatch", status.Service)
	}

	if status.Version == "" {
		t.Error("Version should not be empty")
	}

	if status.LastPoll != nil {
		t.Error("LastPoll should be omitted before the first poll cycle")
	}
}

func TestHealthEndpointReportsLastPoll(t *testing.T) {
	ctx := context.Background()

	polled := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	server, err := controller.NewServer(ctx,
		controller.WithAddr("localhost:0"),
		controller.WithLastPoll(func() time.Time { return polled }),
	)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.Handler.ServeHTTP(w, req)

	var status model.HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if status.LastPoll == nil || !status.LastPoll.Equal(polled) {
		t.Errorf("LastPoll = %v, want %v", status.LastPoll, polled)
	}
}
