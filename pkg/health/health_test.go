package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func TestCheckerStatus(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(c *Checker)
		status string
	}{
		{
			name:   "no checks",
			setup:  func(c *Checker) {},
			status: StatusHealthy,
		},
		{
			name: "all healthy",
			setup: func(c *Checker) {
				c.Register("ledger_store", true, ok)
				c.Register("redis", false, ok)
			},
			status: StatusHealthy,
		},
		{
			name: "optional dependency down",
			setup: func(c *Checker) {
				c.Register("ledger_store", true, ok)
				c.Register("redis", false, failing)
			},
			status: StatusDegraded,
		},
		{
			name: "critical dependency down",
			setup: func(c *Checker) {
				c.Register("ledger_store", true, failing)
				c.Register("redis", false, ok)
			},
			status: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker("liquidation-service", time.Second)
			tt.setup(c)
			report := c.Check(context.Background())
			assert.Equal(t, tt.status, report.Status)
			assert.Equal(t, "liquidation-service", report.Service)
			assert.Len(t, report.Components, len(c.Names()))
		})
	}
}

func TestCheckerTimesOutSlowCheck(t *testing.T) {
	c := NewChecker("liquidation-service", 20*time.Millisecond)
	c.Register("kafka", false, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	report := c.Check(context.Background())
	require.Contains(t, report.Components, "kafka")
	assert.Equal(t, StatusUnhealthy, report.Components["kafka"].Status)
	assert.Contains(t, report.Components["kafka"].Error, "deadline exceeded")
	assert.Equal(t, StatusDegraded, report.Status)
}
