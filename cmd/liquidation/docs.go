package main

// @title Liquidation Ledger API
// @version 1.0
// @description Stock liquidation ledger for distributors and retailers with full observability (logging, tracing, metrics)
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/tair/liquidation-ledger
// @contact.email support@example.com

// @license.name MIT
// @license.url https://github.com/tair/liquidation-ledger/blob/main/LICENSE

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Dealers
// @tag.description Distributor and retailer registry

// @tag.name Entries
// @tag.description Stock entries per dealer and SKU

// @tag.name Reconciliation
// @tag.description Stock count, classification and retailer allocation

// @tag.name Sales
// @tag.description Net sales and farmer sales

// @tag.name Metrics
// @tag.description Aggregates, portfolio metrics and estimates

// @tag.name Health
// @tag.description Health check endpoints
