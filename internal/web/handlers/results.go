// Package handlers serves run results and reports over HTTP. Handlers read
// through the RunSource interface so tests substitute fakes for the store.
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/streets-name-id/internal/report"
	"github.com/streets-name-id/internal/street"
)

// RunSource is the slice of the persistence layer the handlers need.
type RunSource interface {
	LatestRun(ctx context.Context, settlement string) (string, street.Diagnostics, error)
	RunResults(ctx context.Context, runID string) ([]street.ClassificationResult, error)
}

// ResultsHandler serves JSON and CSV views of a settlement's latest run.
type ResultsHandler struct {
	Source RunSource
}

type runResponse struct {
	RunID           string                        `json:"run_id"`
	Diagnostics     street.Diagnostics            `json:"diagnostics"`
	Classifications []street.ClassificationResult `json:"classifications,omitempty"`
	Mapping         street.FinalMapping           `json:"mapping,omitempty"`
}

func (h *ResultsHandler) latest(w http.ResponseWriter, r *http.Request) (string, street.Diagnostics, bool) {
	settlement := mux.Vars(r)["settlement"]
	runID, diagnostics, err := h.Source.LatestRun(r.Context(), settlement)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, fmt.Sprintf("no completed run for settlement %q", settlement), http.StatusNotFound)
		return "", street.Diagnostics{}, false
	}
	if err != nil {
		http.Error(w, "database error", http.StatusInternalServerError)
		return "", street.Diagnostics{}, false
	}
	return runID, diagnostics, true
}

// GetDiagnostics returns the latest run's summary for a settlement.
func (h *ResultsHandler) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	runID, diagnostics, ok := h.latest(w, r)
	if !ok {
		return
	}
	writeJSON(w, runResponse{RunID: runID, Diagnostics: diagnostics})
}

// GetResults returns the latest run's full classification list and final
// mapping.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	runID, diagnostics, ok := h.latest(w, r)
	if !ok {
		return
	}
	classifications, err := h.Source.RunResults(r.Context(), runID)
	if err != nil {
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runResponse{
		RunID:           runID,
		Diagnostics:     diagnostics,
		Classifications: classifications,
		Mapping:         buildMapping(classifications),
	})
}

// ExportCSV streams the latest run's per-segment rows as a CSV download.
func (h *ResultsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	runID, _, ok := h.latest(w, r)
	if !ok {
		return
	}
	classifications, err := h.Source.RunResults(r.Context(), runID)
	if err != nil {
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", mux.Vars(r)["settlement"]+"-results.csv"))
	if err := report.WriteCSV(w, classifications, buildMapping(classifications)); err != nil {
		http.Error(w, "export failed", http.StatusInternalServerError)
	}
}

func buildMapping(classifications []street.ClassificationResult) street.FinalMapping {
	mapping := make(street.FinalMapping)
	for _, c := range classifications {
		if c.Status == street.StatusConfident && c.BestRegistryID != "" {
			mapping[c.SegmentID] = c.BestRegistryID
		}
	}
	return mapping
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}
