package ports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDuplicateChecker is returned when a checker name is registered twice.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// HealthChecker is implemented by components that can report their health.
// The forismatic fetcher registers itself so readiness follows the quote API.
type HealthChecker interface {
	// Name returns a unique identifier for this health check.
	Name() string

	// Check returns nil when the component is healthy.
	// Implementations should respect context cancellation and deadlines.
	Check(ctx context.Context) error
}

// HealthRegistry aggregates health checks from multiple components.
type HealthRegistry interface {
	// Register adds a health checker to the registry.
	// Returns an error if a checker with the same name is already registered.
	Register(checker HealthChecker) error

	// CheckAll runs all registered health checks and returns aggregated results.
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus represents the overall health state.
type HealthStatus string

const (
	// HealthStatusHealthy indicates all checks passed.
	HealthStatusHealthy HealthStatus = "healthy"

	// HealthStatusUnhealthy indicates at least one check failed.
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult contains the aggregated health check results.
type HealthResult struct {
	Status    HealthStatus            `json:"status"`
	Checks    map[string]*CheckResult `json:"checks"`
	Timestamp time.Time               `json:"timestamp"`
}

// CheckResult contains the result of a single health check.
type CheckResult struct {
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// HealthRegistryOption configures a DefaultHealthRegistry.
type HealthRegistryOption func(*DefaultHealthRegistry)

// WithCheckTimeout bounds every individual check. Zero means no bound
// beyond the caller's context.
func WithCheckTimeout(d time.Duration) HealthRegistryOption {
	return func(r *DefaultHealthRegistry) { r.checkTimeout = d }
}

// WithResultTTL reuses the last aggregated result for d. Each check of the
// quote API fetches a real quote, so frequent probes should not all reach
// the upstream.
func WithResultTTL(d time.Duration) HealthRegistryOption {
	return func(r *DefaultHealthRegistry) { r.resultTTL = d }
}

// DefaultHealthRegistry is a thread-safe implementation of HealthRegistry.
type DefaultHealthRegistry struct {
	mu       sync.RWMutex
	checkers []HealthChecker

	checkTimeout time.Duration
	resultTTL    time.Duration
	now          func() time.Time

	cacheMu sync.Mutex
	last    *HealthResult
}

// NewHealthRegistry creates an empty health registry.
func NewHealthRegistry(opts ...HealthRegistryOption) *DefaultHealthRegistry {
	r := &DefaultHealthRegistry{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a health checker to the registry.
func (r *DefaultHealthRegistry) Register(checker HealthChecker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	for _, c := range r.checkers {
		if c.Name() == name {
			return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
		}
	}

	r.checkers = append(r.checkers, checker)

	r.cacheMu.Lock()
	r.last = nil
	r.cacheMu.Unlock()

	return nil
}

// CheckAll runs all registered health checks concurrently.
// A failing check never cancels the others; every checker reports.
// Within the result TTL the previous result is returned unchanged.
func (r *DefaultHealthRegistry) CheckAll(ctx context.Context) *HealthResult {
	if cached := r.cached(); cached != nil {
		return cached
	}

	r.mu.RLock()
	checkers := append([]HealthChecker(nil), r.checkers...)
	r.mu.RUnlock()

	result := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult, len(checkers)),
		Timestamp: r.now(),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, checker := range checkers {
		wg.Go(func() {
			check := r.run(ctx, checker)

			mu.Lock()
			defer mu.Unlock()

			result.Checks[checker.Name()] = check
			if check.Status == HealthStatusUnhealthy {
				result.Status = HealthStatusUnhealthy
			}
		})
	}

	wg.Wait()

	r.store(result)

	return result
}

// run executes one checker under the configured timeout.
func (r *DefaultHealthRegistry) run(ctx context.Context, checker HealthChecker) *CheckResult {
	if r.checkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.checkTimeout)
		defer cancel()
	}

	start := r.now()
	err := checker.Check(ctx)

	check := &CheckResult{
		Status:   HealthStatusHealthy,
		Duration: r.now().Sub(start),
	}
	if err != nil {
		check.Status = HealthStatusUnhealthy
		check.Message = err.Error()
	}

	return check
}

func (r *DefaultHealthRegistry) cached() *HealthResult {
	if r.resultTTL <= 0 {
		return nil
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	if r.last == nil || r.now().Sub(r.last.Timestamp) >= r.resultTTL {
		return nil
	}

	return r.last
}

func (r *DefaultHealthRegistry) store(result *HealthResult) {
	if r.resultTTL <= 0 {
		return
	}

	r.cacheMu.Lock()
	r.last = result
	r.cacheMu.Unlock()
}
