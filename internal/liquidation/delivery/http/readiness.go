package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/liquidation-ledger/pkg/health"
)

// RegisterReadiness exposes GET /ready. A degraded service still takes
// traffic; an unhealthy one answers 503.
func RegisterReadiness(router *mux.Router, checker *health.Checker) {
	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		report := checker.Check(r.Context())

		status := http.StatusOK
		if report.Status == health.StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		respondJSON(w, status, Response{
			Success: status == http.StatusOK,
			Message: report.Status,
			Data:    report,
		})
	}).Methods("GET")
}
