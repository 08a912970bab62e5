package httpserver

import (
	"net/http"
	"strings"

	"github.com/dmccall/sports-arb/internal/arb"
	"github.com/dmccall/sports-arb/pkg/types"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// RecordSource exposes the reconciled records for the API.
type RecordSource interface {
	SnapshotRecords() []types.OutcomeRecord
}

// OpportunitySource exposes the currently open arbitrage windows.
type OpportunitySource interface {
	Open() []arb.Opportunity
}

// ErrorResponse is the JSON error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// APIHandler serves the read-only data endpoints.
type APIHandler struct {
	records       RecordSource
	opportunities OpportunitySource
	logger        *zap.Logger
}

// NewAPIHandler creates the data API handler.
func NewAPIHandler(records RecordSource, opportunities OpportunitySource, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		records:       records,
		opportunities: opportunities,
		logger:        logger,
	}
}

type recordsResponse struct {
	Count   int                   `json:"count"`
	Records []types.OutcomeRecord `json:"records"`
}

// HandleRecords returns the reconciled records, optionally filtered by
// league or event substring.
func (h *APIHandler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	league := strings.ToLower(r.URL.Query().Get("league"))
	event := strings.ToLower(r.URL.Query().Get("event"))

	all := h.records.SnapshotRecords()
	records := make([]types.OutcomeRecord, 0, len(all))
	for _, rec := range all {
		if league != "" && !strings.Contains(strings.ToLower(rec.League), league) {
			continue
		}
		if event != "" && !strings.Contains(strings.ToLower(rec.Event), event) {
			continue
		}
		records = append(records, rec)
	}

	h.writeJSON(w, http.StatusOK, recordsResponse{
		Count:   len(records),
		Records: records,
	})
}

type opportunitiesResponse struct {
	Count         int               `json:"count"`
	Opportunities []arb.Opportunity `json:"opportunities"`
}

// HandleOpportunities returns the currently open arbitrage windows.
func (h *APIHandler) HandleOpportunities(w http.ResponseWriter, r *http.Request) {
	open := h.opportunities.Open()
	h.writeJSON(w, http.StatusOK, opportunitiesResponse{
		Count:         len(open),
		Opportunities: open,
	})
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		h.logger.Warn("api-response-encode-failed", zap.Error(err))
	}
}
