package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpDelivery "github.com/tair/liquidation-ledger/internal/liquidation/delivery/http"
	"github.com/tair/liquidation-ledger/pkg/health"
)

func TestReadiness(t *testing.T) {
	down := func(context.Context) error { return errors.New("down") }
	up := func(context.Context) error { return nil }

	tests := []struct {
		name     string
		store    health.CheckFunc
		redis    health.CheckFunc
		wantCode int
		wantMsg  string
	}{
		{"ready", up, up, http.StatusOK, health.StatusHealthy},
		{"redis down", up, down, http.StatusOK, health.StatusDegraded},
		{"store down", down, up, http.StatusServiceUnavailable, health.StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := health.NewChecker("liquidation-service", time.Second)
			checker.Register("ledger_store", true, tt.store)
			checker.Register("redis", false, tt.redis)

			router := mux.NewRouter()
			httpDelivery.RegisterReadiness(router, checker)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", "/ready", nil))
			require.Equal(t, tt.wantCode, rec.Code)

			var resp struct {
				Message string        `json:"message"`
				Data    health.Report `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantMsg, resp.Message)
			assert.Len(t, resp.Data.Components, 2)
		})
	}
}
