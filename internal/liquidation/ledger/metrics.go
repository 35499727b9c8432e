package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the ledger's domain counters.
type Metrics struct {
	mutations                *prometheus.CounterVec
	rejections               *prometheus.CounterVec
	invariantViolations      *prometheus.CounterVec
	reconciliationsStarted   prometheus.Counter
	reconciliationsCommitted prometheus.Counter
	reconciliationsAbandoned prometheus.Counter
	retailerSales            prometheus.Counter
	duplicateEvents          prometheus.Counter
	stockIncreases           prometheus.Counter
}

// NewMetrics creates the ledger counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liquidation_ledger_mutations_total",
				Help: "Ledger mutations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liquidation_ledger_validation_rejections_total",
				Help: "Mutations rejected with a validation error, by error code",
			},
			[]string{"code"},
		),
		invariantViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liquidation_ledger_invariant_violations_total",
				Help: "Recomputations that disagreed with stored derived values",
			},
			[]string{"invariant"},
		),
		reconciliationsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "liquidation_ledger_reconciliations_started_total",
			Help: "Stock counts that revealed a shortfall",
		}),
		reconciliationsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "liquidation_ledger_reconciliations_committed_total",
			Help: "Reconciliations fully classified and committed",
		}),
		reconciliationsAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "liquidation_ledger_reconciliations_abandoned_total",
			Help: "Pending reconciliations superseded by a newer stock count",
		}),
		retailerSales: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "liquidation_ledger_retailer_sales_total",
			Help: "Retailer farmer sales attributed to a distributor",
		}),
		duplicateEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "liquidation_ledger_duplicate_events_total",
			Help: "Inbound events ignored because their id was already applied",
		}),
		stockIncreases: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "liquidation_ledger_stock_increases_total",
			Help: "Stock counts above the last known stock",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.mutations,
			m.rejections,
			m.invariantViolations,
			m.reconciliationsStarted,
			m.reconciliationsCommitted,
			m.reconciliationsAbandoned,
			m.retailerSales,
			m.duplicateEvents,
			m.stockIncreases,
		)
	}
	return m
}
