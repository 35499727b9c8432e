package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tair/liquidation-ledger/pkg/logger"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc checks one dependency. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// ComponentHealth represents the health status of a dependency
type ComponentHealth struct {
	Name      string        `json:"name"`
	Status    string        `json:"status"`
	Critical  bool          `json:"critical"`
	Latency   time.Duration `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Report represents the overall service health
type Report struct {
	Service    string                     `json:"service"`
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Uptime     time.Duration              `json:"uptime_seconds"`
}

type check struct {
	fn       CheckFunc
	critical bool
}

// Checker checks the service's dependencies concurrently.
type Checker struct {
	service   string
	timeout   time.Duration
	startTime time.Time

	mu     sync.RWMutex
	checks map[string]check
}

// NewChecker creates a checker whose checks each get timeout to answer.
func NewChecker(service string, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		service:   service,
		timeout:   timeout,
		startTime: time.Now(),
		checks:    make(map[string]check),
	}
}

// Register adds a check. A failing critical check makes the service unhealthy;
// any other failure only degrades it.
func (c *Checker) Register(name string, critical bool, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check{fn: fn, critical: critical}
}

// Check runs every check and folds the results into one status.
func (c *Checker) Check(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]check, len(c.checks))
	for name, ch := range c.checks {
		checks[name] = ch
	}
	c.mu.RUnlock()

	components := make(map[string]ComponentHealth, len(checks))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, ch := range checks {
		wg.Add(1)
		go func(name string, ch check) {
			defer wg.Done()
			result := c.run(ctx, name, ch)

			mu.Lock()
			components[name] = result
			mu.Unlock()

			if result.Status == StatusHealthy {
				logger.Debug(ctx).
					Str("component", name).
					Dur("latency", result.Latency).
					Msg("Dependency health check")
			} else {
				logger.Warn(ctx).
					Str("component", name).
					Str("error", result.Error).
					Msg("Dependency health check failed")
			}
		}(name, ch)
	}
	wg.Wait()

	return Report{
		Service:    c.service,
		Status:     overallStatus(components),
		Components: components,
		Uptime:     time.Since(c.startTime),
	}
}

func (c *Checker) run(ctx context.Context, name string, ch check) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result := ComponentHealth{
		Name:      name,
		Status:    StatusHealthy,
		Critical:  ch.critical,
		Timestamp: start,
	}
	if err := ch.fn(ctx); err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	}
	result.Latency = time.Since(start)
	return result
}

func overallStatus(components map[string]ComponentHealth) string {
	status := StatusHealthy
	for _, c := range components {
		if c.Status == StatusHealthy {
			continue
		}
		if c.Critical {
			return StatusUnhealthy
		}
		status = StatusDegraded
	}
	return status
}

// Names lists the registered checks in order.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
