package kafka

import (
	"context"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/pkg/circuitbreaker"
)

type eventPublisher interface {
	Publish(ctx context.Context, event domain.LedgerEvent) error
}

// GuardedPublisher skips the broker while its circuit is open, so a broker
// outage costs each ledger step one fast failure instead of a full retry cycle.
type GuardedPublisher struct {
	next    eventPublisher
	breaker *circuitbreaker.Breaker
}

func NewGuardedPublisher(next eventPublisher, breaker *circuitbreaker.Breaker) *GuardedPublisher {
	return &GuardedPublisher{next: next, breaker: breaker}
}

func (p *GuardedPublisher) Publish(ctx context.Context, event domain.LedgerEvent) error {
	return p.breaker.Call(func() error {
		return p.next.Publish(ctx, event)
	})
}

// Breaker exposes the circuit for readiness reporting.
func (p *GuardedPublisher) Breaker() *circuitbreaker.Breaker {
	return p.breaker
}
