package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmccall/sports-arb/internal/arb"
	"github.com/dmccall/sports-arb/pkg/healthprobe"
	"github.com/dmccall/sports-arb/pkg/types"
	"go.uber.org/zap"
)

type fakeRecords struct {
	recs []types.OutcomeRecord
}

func (f *fakeRecords) SnapshotRecords() []types.OutcomeRecord { return f.recs }

type fakeOpportunities struct {
	open []arb.Opportunity
}

func (f *fakeOpportunities) Open() []arb.Opportunity { return f.open }

func TestNew(t *testing.T) {
	logger := zap.NewNop()
	healthChecker := healthprobe.New()

	tests := []struct {
		name string
		cfg  *Config
	}{
		{
			name: "valid_config_minimal",
			cfg: &Config{
				Port:          "8080",
				Logger:        logger,
				HealthChecker: healthChecker,
			},
		},
		{
			name: "valid_config_with_api",
			cfg: &Config{
				Port:          "8080",
				Logger:        logger,
				HealthChecker: healthChecker,
				Records:       &fakeRecords{},
				Opportunities: &fakeOpportunities{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := New(tt.cfg)
			if server == nil {
				t.Fatal("New() returned nil server")
			}
			if server.server == nil {
				t.Error("New() server.server is nil")
			}
			if server.logger != tt.cfg.Logger {
				t.Error("New() logger not set correctly")
			}
			if server.healthChecker != tt.cfg.HealthChecker {
				t.Error("New() healthChecker not set correctly")
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: healthprobe.New(),
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Health endpoint status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestReadyEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		setReady       bool
		expectedStatus int
	}{
		{
			name:           "ready_when_set",
			setReady:       true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not_ready_initially",
			setReady:       false,
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := healthprobe.New()
			if tt.setReady {
				hc.SetReady(true)
			}

			server := New(&Config{
				Port:          "0",
				Logger:        zap.NewNop(),
				HealthChecker: hc,
			})

			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			w := httptest.NewRecorder()
			server.server.Handler.ServeHTTP(w, req)

			resp := w.Result()
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Ready endpoint status = %d, want %d", resp.StatusCode, tt.expectedStatus)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: healthprobe.New(),
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Metrics endpoint status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	if resp.Header.Get("Content-Type") == "" {
		t.Error("Metrics endpoint missing Content-Type header")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read metrics response body: %v", err)
	}
	if len(body) == 0 {
		t.Error("Metrics endpoint returned empty body")
	}
}

func TestRecordsEndpoint(t *testing.T) {
	records := &fakeRecords{recs: []types.OutcomeRecord{
		{League: "EPL", Event: "Arsenal v Chelsea", Outcome: "Arsenal", BackPrice: 2.10},
		{League: "EPL", Event: "Leeds v Derby", Outcome: "Leeds", BackPrice: 1.80},
		{League: "Serie A", Event: "Milan v Inter", Outcome: "Milan", BackPrice: 2.60},
	}}

	server := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: healthprobe.New(),
		Records:       records,
	})

	tests := []struct {
		name      string
		target    string
		wantCount int
	}{
		{"all_records", "/api/records", 3},
		{"filter_by_league", "/api/records?league=epl", 2},
		{"filter_by_event", "/api/records?event=milan", 1},
		{"no_match", "/api/records?league=bundesliga", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()
			server.server.Handler.ServeHTTP(w, req)

			resp := w.Result()
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("Records endpoint status = %d, want %d", resp.StatusCode, http.StatusOK)
			}

			var payload recordsResponse
			err := json.NewDecoder(resp.Body).Decode(&payload)
			if err != nil {
				t.Fatalf("Failed to decode records response: %v", err)
			}
			if payload.Count != tt.wantCount {
				t.Errorf("Count = %d, want %d", payload.Count, tt.wantCount)
			}
		})
	}
}

func TestOpportunitiesEndpoint(t *testing.T) {
	opportunities := &fakeOpportunities{open: []arb.Opportunity{
		{ID: "opp-1", Margin: 0.015, Direction: arb.DirectionBackSharp},
	}}

	server := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: healthprobe.New(),
		Records:       &fakeRecords{},
		Opportunities: opportunities,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
	w := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Opportunities endpoint status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var payload opportunitiesResponse
	err := json.NewDecoder(resp.Body).Decode(&payload)
	if err != nil {
		t.Fatalf("Failed to decode opportunities response: %v", err)
	}
	if payload.Count != 1 {
		t.Errorf("Count = %d, want 1", payload.Count)
	}
	if payload.Opportunities[0].ID != "opp-1" {
		t.Errorf("Opportunity ID = %s, want opp-1", payload.Opportunities[0].ID)
	}
}

func TestAPIEndpointsOnlyWithSources(t *testing.T) {
	server := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: healthprobe.New(),
	})

	for _, target := range []string{"/api/records", "/api/opportunities"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		server.server.Handler.ServeHTTP(w, req)

		resp := w.Result()
		resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s without sources status = %d, want %d", target, resp.StatusCode, http.StatusNotFound)
		}
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	server := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: healthprobe.New(),
	})

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start()
	}()

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	select {
	case err := <-serverDone:
		if err != nil {
			t.Errorf("Start() returned error after shutdown: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after shutdown")
	}
}

func TestServer_Timeouts(t *testing.T) {
	server := New(&Config{
		Port:          "8080",
		Logger:        zap.NewNop(),
		HealthChecker: healthprobe.New(),
	})

	if server.server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout = %v, want %v", server.server.ReadTimeout, 15*time.Second)
	}
	if server.server.ReadHeaderTimeout != 10*time.Second {
		t.Errorf("ReadHeaderTimeout = %v, want %v", server.server.ReadHeaderTimeout, 10*time.Second)
	}
	if server.server.WriteTimeout != 15*time.Second {
		t.Errorf("WriteTimeout = %v, want %v", server.server.WriteTimeout, 15*time.Second)
	}
	if server.server.IdleTimeout != 60*time.Second {
		t.Errorf("IdleTimeout = %v, want %v", server.server.IdleTimeout, 60*time.Second)
	}
}

func TestServer_RouteNotFound(t *testing.T) {
	server := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: healthprobe.New(),
	})

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	w := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Non-existent route status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
