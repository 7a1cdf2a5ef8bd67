package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/numa-labs/numa/internal/analytics"
	"github.com/numa-labs/numa/internal/api/middleware"
)

// MonthlyReporter is the slice of the analytics exporter the reports
// endpoint needs.
type MonthlyReporter interface {
	QueryMonthlyTotals(ctx context.Context, userID string, start, end time.Time) ([]*analytics.MonthlyTotal, error)
}

// ReportsHandler serves ledger aggregations. reporter is nil when the
// analytics ledger is not configured.
type ReportsHandler struct {
	reporter MonthlyReporter
	log      zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(reporter MonthlyReporter, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{reporter: reporter, log: log}
}

// monthlyBucket is the JSON shape of one aggregation row.
type monthlyBucket struct {
	Month string  `json:"month"`
	Type  string  `json:"type"`
	Total float64 `json:"total"`
	Count int64   `json:"count"`
}

// defaultReportWindow is how far back Monthly looks without explicit dates.
const defaultReportWindow = 6 * 30 * 24 * time.Hour

// Monthly handles GET /api/reports/monthly with optional start and end query
// params (YYYY-MM-DD).
func (h *ReportsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	if h.reporter == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Reports are not configured")
		return
	}

	ctx := r.Context()
	userID := middleware.UserID(ctx)

	end := time.Now()
	start := end.Add(-defaultReportWindow)

	if s := r.URL.Query().Get("start"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start date")
			return
		}
		start = parsed
	}
	if s := r.URL.Query().Get("end"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end date")
			return
		}
		end = parsed
	}

	totals, err := h.reporter.QueryMonthlyTotals(ctx, userID, start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query monthly totals")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build report")
		return
	}

	buckets := make([]monthlyBucket, 0, len(totals))
	for _, t := range totals {
		b := monthlyBucket{Month: t.Month, Type: t.Type, Count: t.TxnCount}
		if t.Total != nil {
			b.Total, _ = t.Total.Float64()
		}
		buckets = append(buckets, b)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"months": buckets,
		"count":  len(buckets),
	})
}
