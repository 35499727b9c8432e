package http

import (
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation for Liquidation Ledger
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	if swaggerHandler == nil {
		swaggerHandler = httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))
	}
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// OnboardDealer godoc
// @Summary Onboard dealer
// @Description Register a distributor or a retailer under an active distributor (Admin only)
// @Tags Dealers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{id=string,name=string,type=string,distributor_id=string,territory=string} true "Dealer"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 422 {object} object{success=bool,error=string,details=object}
// @Router /api/liquidation/dealers [post]
func (h *LedgerHandler) OnboardDealerDoc() {}

// ListDealers godoc
// @Summary List dealers
// @Tags Dealers
// @Security BearerAuth
// @Produce json
// @Param type query string false "distributor or retailer"
// @Param distributor_id query string false "Parent distributor"
// @Param active query bool false "Active only"
// @Success 200 {object} object{success=bool,data=object{dealers=array,total=int}}
// @Router /api/liquidation/dealers [get]
func (h *LedgerHandler) ListDealersDoc() {}

// OpenEntry godoc
// @Summary Open stock entry
// @Description Open the liquidation entry for a dealer and SKU (Admin only)
// @Tags Entries
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{dealer_id=string,sku=string,opening_stock=object,ytd_net_sales=object} true "Entry"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 422 {object} object{success=bool,error=string,details=object}
// @Router /api/liquidation/entries [post]
func (h *LedgerHandler) OpenEntryDoc() {}

// GetEntry godoc
// @Summary Get stock entry
// @Tags Entries
// @Security BearerAuth
// @Produce json
// @Param dealerId path string true "Dealer ID"
// @Param sku path string true "SKU"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/liquidation/{dealerId}/entries/{sku} [get]
func (h *LedgerHandler) GetEntryDoc() {}

// SubmitStockCount godoc
// @Summary Submit physical stock count
// @Description Counts must cover every SKU of the dealer and be taken within range
// @Tags Reconciliation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param dealerId path string true "Dealer ID"
// @Param request body object{counts=object,in_range=bool,letterhead=bool,signature=bool} true "Count"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 422 {object} object{success=bool,error=string,details=object}
// @Router /api/liquidation/{dealerId}/stock-count [post]
func (h *LedgerHandler) SubmitStockCountDoc() {}

// Classify godoc
// @Summary Classify stock shortfall
// @Description Split the counted shortfall between direct farmer sales and retailer transfers
// @Tags Reconciliation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param dealerId path string true "Dealer ID"
// @Param request body object{sku=string,to_farmer_direct=int,to_retailer=int} true "Split"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 422 {object} object{success=bool,error=string,details=object}
// @Router /api/liquidation/{dealerId}/classify [post]
func (h *LedgerHandler) ClassifyDoc() {}

// AllocateRetailers godoc
// @Summary Allocate retailer transfers
// @Tags Reconciliation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param dealerId path string true "Distributor ID"
// @Param request body object{sku=string,allocations=object} true "Allocations by retailer"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 422 {object} object{success=bool,error=string,details=object}
// @Router /api/liquidation/{dealerId}/allocate-retailers [post]
func (h *LedgerHandler) AllocateRetailersDoc() {}

// RecordRetailerSale godoc
// @Summary Record retailer sale to farmer
// @Tags Sales
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param distributorId path string true "Distributor ID"
// @Param request body object{retailer_id=string,sku=string,volume=int,value=string,event_id=string} true "Sale, optionally keyed by an idempotency id"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 422 {object} object{success=bool,error=string,details=object}
// @Router /api/liquidation/{distributorId}/retailer-sale [post]
func (h *LedgerHandler) RecordRetailerSaleDoc() {}

// GetDistributorAggregate godoc
// @Summary Distributor aggregate
// @Description Totals over the distributor's own entries with a per-retailer breakdown
// @Tags Metrics
// @Security BearerAuth
// @Produce json
// @Param distributorId path string true "Distributor ID"
// @Success 200 {object} object{success=bool,data=object}
// @Router /api/liquidation/{distributorId}/aggregate [get]
func (h *LedgerHandler) GetDistributorAggregateDoc() {}

// GetOverallMetrics godoc
// @Summary Portfolio metrics
// @Tags Metrics
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{success=bool,data=object}
// @Router /api/liquidation/metrics/overall [get]
func (h *LedgerHandler) GetOverallMetricsDoc() {}

// EstimateProportional godoc
// @Summary Proportional estimate
// @Description Spread a target portfolio total over distributors by weight. Never written to the ledger.
// @Tags Metrics
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{field=string,target=object} true "Target"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Router /api/liquidation/estimates/proportional [post]
func (h *LedgerHandler) EstimateProportionalDoc() {}

// HealthCheck godoc
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Router /health [get]
func (h *LedgerHandler) HealthCheckDoc() {}

// ReadinessDoc godoc
// @Summary Dependency readiness
// @Description Checks the ledger store, Redis and the Kafka publisher breaker
// @Tags Health
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} Response
// @Router /ready [get]
func (h *LedgerHandler) ReadinessDoc() {}
