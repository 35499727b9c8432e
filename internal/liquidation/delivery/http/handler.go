package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/internal/liquidation/usecase/command"
	"github.com/tair/liquidation-ledger/internal/liquidation/usecase/query"
	"github.com/tair/liquidation-ledger/pkg/auth"
	"github.com/tair/liquidation-ledger/pkg/logger"
)

const apiPrefix = "/api/liquidation"

// CommandHandlers groups the write side
type CommandHandlers struct {
	OnboardDealer       *command.OnboardDealerHandler
	DeactivateDealer    *command.DeactivateDealerHandler
	OpenEntry           *command.OpenEntryHandler
	SubmitStockCount    *command.SubmitStockCountHandler
	Classify            *command.ClassifyHandler
	AllocateRetailers   *command.AllocateRetailersHandler
	RecordRetailerSale  *command.RecordRetailerSaleHandler
	RecordNetSales      *command.RecordNetSalesHandler
	CorrectOpeningStock *command.CorrectOpeningStockHandler
	RecordFarmerSale    *command.RecordFarmerSaleHandler
}

// QueryHandlers groups the read side
type QueryHandlers struct {
	GetEntry                *query.GetEntryHandler
	ListEntries             *query.ListEntriesHandler
	ListDealers             *query.ListDealersHandler
	GetReconciliation       *query.GetReconciliationHandler
	ListAssignments         *query.ListAssignmentsHandler
	GetDistributorAggregate *query.GetDistributorAggregateHandler
	GetOverallMetrics       *query.GetOverallMetricsHandler
	ValidateEntry           *query.ValidateEntryHandler
	Estimate                *query.EstimateHandler
}

// LedgerHandler handles HTTP requests for the liquidation ledger using CQRS pattern
type LedgerHandler struct {
	commands CommandHandlers
	queries  QueryHandlers
	issuer   *auth.Issuer
	limiter  RateLimiter

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	requestSummary *prometheus.SummaryVec
}

// NewLedgerHandler creates the handler and registers its metrics on reg
func NewLedgerHandler(commands CommandHandlers, queries QueryHandlers, issuer *auth.Issuer, reg prometheus.Registerer) *LedgerHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liquidation_service_requests_total",
			Help: "Total number of requests to liquidation service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "liquidation_service_request_duration_seconds",
			Help:    "Duration of liquidation service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Summary metric for percentile calculation (p50, p90, p95, p99)
	requestSummary := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "liquidation_service_request_duration_summary",
			Help: "Summary of request durations with percentiles (client-side quantiles)",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.95: 0.01,
				0.99: 0.001,
			},
			MaxAge: 10 * time.Minute,
		},
		[]string{"method", "endpoint"},
	)

	if reg != nil {
		reg.MustRegister(requestCounter, requestLatency, requestSummary)
	}

	return &LedgerHandler{
		commands:       commands,
		queries:        queries,
		issuer:         issuer,
		requestCounter: requestCounter,
		requestLatency: requestLatency,
		requestSummary: requestSummary,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *LedgerHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestSummary.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

// UseRateLimiter limits the field submission routes. Call it before RegisterRoutes.
func (h *LedgerHandler) UseRateLimiter(l RateLimiter) {
	h.limiter = l
}

func (h *LedgerHandler) route(router *mux.Router, method, path string, fn http.HandlerFunc, roles ...auth.Role) {
	endpoint := apiPrefix + path
	if h.limiter != nil && isFieldRoute(roles) {
		fn = RateLimitMiddleware(h.limiter)(fn)
	}
	router.HandleFunc(endpoint, h.metricsMiddleware(endpoint, AuthMiddleware(h.issuer, roles...)(fn))).Methods(method)
}

func (h *LedgerHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	// Literal paths first so they are not captured by {dealerId}
	h.route(router, "GET", "/dealers", h.ListDealers)
	h.route(router, "POST", "/dealers", h.OnboardDealer, auth.RoleAdmin)
	h.route(router, "POST", "/dealers/{dealerId}/deactivate", h.DeactivateDealer, auth.RoleAdmin)
	h.route(router, "POST", "/entries", h.OpenEntry, auth.RoleAdmin)
	h.route(router, "GET", "/metrics/overall", h.GetOverallMetrics)
	h.route(router, "POST", "/estimates/proportional", h.EstimateProportional)

	h.route(router, "GET", "/{dealerId}/entries", h.ListEntries)
	h.route(router, "GET", "/{dealerId}/entries/{sku}", h.GetEntry)
	h.route(router, "GET", "/{dealerId}/entries/{sku}/validate", h.ValidateEntry)
	h.route(router, "GET", "/{dealerId}/entries/{sku}/reconciliation", h.GetReconciliation)
	h.route(router, "PUT", "/{dealerId}/entries/{sku}/opening-stock", h.CorrectOpeningStock, auth.RoleAdmin)

	h.route(router, "POST", "/{dealerId}/sales", h.RecordNetSales, auth.RoleField)
	h.route(router, "POST", "/{dealerId}/farmer-sale", h.RecordFarmerSale, auth.RoleField)
	h.route(router, "POST", "/{dealerId}/stock-count", h.SubmitStockCount, auth.RoleField)
	h.route(router, "POST", "/{dealerId}/classify", h.Classify, auth.RoleField)
	h.route(router, "POST", "/{dealerId}/allocate-retailers", h.AllocateRetailers, auth.RoleField)
	h.route(router, "POST", "/{distributorId}/retailer-sale", h.RecordRetailerSale, auth.RoleField)

	h.route(router, "GET", "/{distributorId}/aggregate", h.GetDistributorAggregate)
	h.route(router, "GET", "/{distributorId}/assignments", h.ListAssignments)
}

func isFieldRoute(roles []auth.Role) bool {
	for _, r := range roles {
		if r == auth.RoleField {
			return true
		}
	}
	return false
}

// HealthCheck handles GET /health
func (h *LedgerHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "ok"})
}

// OnboardDealer handles POST /api/liquidation/dealers
func (h *LedgerHandler) OnboardDealer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID            string            `json:"id"`
		Name          string            `json:"name"`
		Type          domain.DealerType `json:"type"`
		DistributorID string            `json:"distributor_id"`
		Territory     string            `json:"territory"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	dealer, err := h.commands.OnboardDealer.Handle(r.Context(), command.OnboardDealerCommand{
		ID:            req.ID,
		Name:          req.Name,
		Type:          req.Type,
		DistributorID: req.DistributorID,
		Territory:     req.Territory,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Dealer onboarded",
		Data:    dealer,
	})
}

// DeactivateDealer handles POST /api/liquidation/dealers/{dealerId}/deactivate
func (h *LedgerHandler) DeactivateDealer(w http.ResponseWriter, r *http.Request) {
	dealer, err := h.commands.DeactivateDealer.Handle(r.Context(), command.DeactivateDealerCommand{
		DealerID: mux.Vars(r)["dealerId"],
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Dealer deactivated",
		Data:    dealer,
	})
}

// ListDealers handles GET /api/liquidation/dealers
func (h *LedgerHandler) ListDealers(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	activeOnly, _ := strconv.ParseBool(params.Get("active"))

	dealers, err := h.queries.ListDealers.Handle(r.Context(), query.ListDealersQuery{
		Type:          domain.DealerType(params.Get("type")),
		DistributorID: params.Get("distributor_id"),
		ActiveOnly:    activeOnly,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"dealers": dealers,
			"total":   len(dealers),
		},
	})
}

// OpenEntry handles POST /api/liquidation/entries
func (h *LedgerHandler) OpenEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DealerID     string           `json:"dealer_id"`
		SKU          string           `json:"sku"`
		OpeningStock domain.Quantity  `json:"opening_stock"`
		YTDNetSales  domain.Quantity  `json:"ytd_net_sales"`
		CurrentStock *domain.Quantity `json:"current_stock"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	entry, err := h.commands.OpenEntry.Handle(r.Context(), command.OpenEntryCommand{
		DealerID:     req.DealerID,
		SKU:          req.SKU,
		OpeningStock: req.OpeningStock,
		YTDNetSales:  req.YTDNetSales,
		CurrentStock: req.CurrentStock,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Entry opened",
		Data:    entry,
	})
}

// ListEntries handles GET /api/liquidation/{dealerId}/entries
func (h *LedgerHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.queries.ListEntries.Handle(r.Context(), query.ListEntriesQuery{
		DealerID: mux.Vars(r)["dealerId"],
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"entries": entries,
			"total":   len(entries),
		},
	})
}

// GetEntry handles GET /api/liquidation/{dealerId}/entries/{sku}
func (h *LedgerHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entry, err := h.queries.GetEntry.Handle(r.Context(), query.GetEntryQuery{
		DealerID: vars["dealerId"],
		SKU:      vars["sku"],
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: entry})
}

// ValidateEntry handles GET /api/liquidation/{dealerId}/entries/{sku}/validate
func (h *LedgerHandler) ValidateEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	report, err := h.queries.ValidateEntry.Handle(r.Context(), query.ValidateEntryQuery{
		DealerID: vars["dealerId"],
		SKU:      vars["sku"],
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: report})
}

// GetReconciliation handles GET /api/liquidation/{dealerId}/entries/{sku}/reconciliation
func (h *LedgerHandler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	view, err := h.queries.GetReconciliation.Handle(r.Context(), query.GetReconciliationQuery{
		DealerID: vars["dealerId"],
		SKU:      vars["sku"],
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: view})
}

// CorrectOpeningStock handles PUT /api/liquidation/{dealerId}/entries/{sku}/opening-stock
func (h *LedgerHandler) CorrectOpeningStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OpeningStock domain.Quantity `json:"opening_stock"`
		Reason       string          `json:"reason"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	vars := mux.Vars(r)
	userID, _ := r.Context().Value(UserIDKey).(string)
	entry, err := h.commands.CorrectOpeningStock.Handle(r.Context(), command.CorrectOpeningStockCommand{
		DealerID:     vars["dealerId"],
		SKU:          vars["sku"],
		OpeningStock: req.OpeningStock,
		Reason:       req.Reason,
		RequestedBy:  userID,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Opening stock corrected",
		Data:    entry,
	})
}

// skuQuantityRequest flattens a quantity next to its SKU:
// {"sku": "...", "volume": 15, "value": "0.18"}
type skuQuantityRequest struct {
	SKU string `json:"sku"`
	domain.Quantity
}

// RecordNetSales handles POST /api/liquidation/{dealerId}/sales
func (h *LedgerHandler) RecordNetSales(w http.ResponseWriter, r *http.Request) {
	var req skuQuantityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := h.commands.RecordNetSales.Handle(r.Context(), command.RecordNetSalesCommand{
		DealerID: mux.Vars(r)["dealerId"],
		SKU:      req.SKU,
		Quantity: req.Quantity,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Net sales recorded",
		Data:    entry,
	})
}

// RecordFarmerSale handles POST /api/liquidation/{dealerId}/farmer-sale
func (h *LedgerHandler) RecordFarmerSale(w http.ResponseWriter, r *http.Request) {
	var req skuQuantityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := h.commands.RecordFarmerSale.Handle(r.Context(), command.RecordFarmerSaleCommand{
		DealerID: mux.Vars(r)["dealerId"],
		SKU:      req.SKU,
		Quantity: req.Quantity,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Farmer sale recorded",
		Data:    entry,
	})
}

// SubmitStockCount handles POST /api/liquidation/{dealerId}/stock-count
func (h *LedgerHandler) SubmitStockCount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Counts     map[string]int64 `json:"counts"`
		InRange    bool             `json:"in_range"`
		Letterhead bool             `json:"letterhead"`
		Signature  bool             `json:"signature"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.commands.SubmitStockCount.Handle(r.Context(), command.SubmitStockCountCommand{
		DealerID:   mux.Vars(r)["dealerId"],
		Counts:     req.Counts,
		InRange:    req.InRange,
		Letterhead: req.Letterhead,
		Signature:  req.Signature,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Stock count recorded",
		Data:    result,
	})
}

// Classify handles POST /api/liquidation/{dealerId}/classify
func (h *LedgerHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SKU            string `json:"sku"`
		ToFarmerDirect int64  `json:"to_farmer_direct"`
		ToRetailer     int64  `json:"to_retailer"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.commands.Classify.Handle(r.Context(), command.ClassifyCommand{
		DealerID:       mux.Vars(r)["dealerId"],
		SKU:            req.SKU,
		ToFarmerDirect: req.ToFarmerDirect,
		ToRetailer:     req.ToRetailer,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	msg := "Classification recorded, retailer allocation required"
	if result.Committed {
		msg = "Reconciliation committed"
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: msg, Data: result})
}

// AllocateRetailers handles POST /api/liquidation/{dealerId}/allocate-retailers
func (h *LedgerHandler) AllocateRetailers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SKU         string           `json:"sku"`
		Allocations map[string]int64 `json:"allocations"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.commands.AllocateRetailers.Handle(r.Context(), command.AllocateRetailersCommand{
		DealerID:    mux.Vars(r)["dealerId"],
		SKU:         req.SKU,
		Allocations: req.Allocations,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Reconciliation committed",
		Data:    result,
	})
}

// RecordRetailerSale handles POST /api/liquidation/{distributorId}/retailer-sale
func (h *LedgerHandler) RecordRetailerSale(w http.ResponseWriter, r *http.Request) {
	var req struct {
		skuQuantityRequest
		RetailerID string `json:"retailer_id"`
		EventID    string `json:"event_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := h.commands.RecordRetailerSale.Handle(r.Context(), command.RecordRetailerSaleCommand{
		EventID:       req.EventID,
		DistributorID: mux.Vars(r)["distributorId"],
		RetailerID:    req.RetailerID,
		SKU:           req.SKU,
		Quantity:      req.Quantity,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Retailer sale recorded",
		Data:    entry,
	})
}

// GetDistributorAggregate handles GET /api/liquidation/{distributorId}/aggregate
func (h *LedgerHandler) GetDistributorAggregate(w http.ResponseWriter, r *http.Request) {
	agg, err := h.queries.GetDistributorAggregate.Handle(r.Context(), query.GetDistributorAggregateQuery{
		DistributorID: mux.Vars(r)["distributorId"],
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: agg})
}

// ListAssignments handles GET /api/liquidation/{distributorId}/assignments
func (h *LedgerHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.queries.ListAssignments.Handle(r.Context(), query.ListAssignmentsQuery{
		DistributorID: mux.Vars(r)["distributorId"],
		SKU:           r.URL.Query().Get("sku"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"assignments": assignments,
			"total":       len(assignments),
		},
	})
}

// GetOverallMetrics handles GET /api/liquidation/metrics/overall
func (h *LedgerHandler) GetOverallMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.queries.GetOverallMetrics.Handle(r.Context(), query.GetOverallMetricsQuery{})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: metrics})
}

// EstimateProportional handles POST /api/liquidation/estimates/proportional
func (h *LedgerHandler) EstimateProportional(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field  domain.EstimateField `json:"field"`
		Target domain.Quantity      `json:"target"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	est, err := h.queries.Estimate.Handle(r.Context(), query.EstimateQuery{
		Field:  req.Field,
		Target: req.Target,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Estimate only; the ledger was not changed",
		Data:    est,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return false
	}
	return true
}

// respondError maps ledger errors onto HTTP statuses. Validation details are
// returned verbatim so clients can show expected and given numbers.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		violation  *domain.InvariantViolation
	)

	switch {
	case errors.As(err, &validation):
		respondJSON(w, http.StatusUnprocessableEntity, Response{
			Success: false,
			Error:   string(validation.Code),
			Details: validation,
		})
	case errors.As(err, &notFound):
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   notFound.Error(),
			Details: notFound,
		})
	case errors.As(err, &violation):
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "invariant_violation",
			Details: violation,
		})
	default:
		logger.Error(r.Context()).
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Internal server error",
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
