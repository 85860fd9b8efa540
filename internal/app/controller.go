// Package app contains the application layer: the quote controller that
// owns presentation state, and the scheduler that drives it.
//
// Display surfaces (terminal UI, HTTP, plain output) never talk to the
// fetcher directly. They call Refresh or Mount, read Snapshot, and
// Subscribe to changes.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-client/internal/domain"
	"github.com/jsamuelsen/quote-client/internal/platform/logging"
	"github.com/jsamuelsen/quote-client/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-client/internal/ports"
)

// outcomeSuperseded labels refreshes whose result was dropped because a
// newer refresh started.
const outcomeSuperseded = "superseded"

// QuoteControllerConfig contains configuration for the quote controller.
type QuoteControllerConfig struct {
	Fetcher ports.QuoteFetcher
	Logger  *slog.Logger
}

// QuoteController owns the presentation state and is the only writer of it.
//
// Overlapping refreshes: the newest refresh wins. Starting a refresh
// cancels the context of the one in flight, and whatever that older
// refresh returns is discarded.
type QuoteController struct {
	fetcher ports.QuoteFetcher
	logger  *slog.Logger

	tracer       trace.Tracer
	refreshTotal metric.Int64Counter

	mu         sync.Mutex
	state      State
	generation uint64
	cancel     context.CancelFunc

	subMu  sync.RWMutex
	subs   map[uint64]func(State)
	nextID uint64
}

// NewQuoteController creates a controller in the welcome state.
// Panics if Fetcher is nil. Defaults logger to slog.Default() if nil.
func NewQuoteController(cfg QuoteControllerConfig) *QuoteController {
	if cfg.Fetcher == nil {
		panic("QuoteController: Fetcher is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	refreshTotal, err := telemetry.Meter().Int64Counter(
		"quote.refresh.total",
		metric.WithDescription("Quote refreshes by outcome"),
	)
	if err != nil {
		otel.Handle(err)
	}

	return &QuoteController{
		fetcher:      cfg.Fetcher,
		logger:       logger.With(slog.String("component", "app.QuoteController")),
		tracer:       telemetry.Tracer(),
		refreshTotal: refreshTotal,
		subs:         make(map[uint64]func(State)),
	}
}

// Snapshot returns the current state.
func (c *QuoteController) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Subscribe registers fn to receive every new state. fn runs on the
// goroutine that changed the state, without controller locks held, so it
// may call Snapshot. It must not block for long.
// The returned function removes the subscription.
func (c *QuoteController) Subscribe(fn func(State)) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextID
	c.nextID++
	c.subs[id] = fn

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()

		delete(c.subs, id)
	}
}

// Mount refreshes only if no quote has been loaded yet. Display surfaces
// call it when they first appear. Reports whether a refresh ran.
func (c *QuoteController) Mount(ctx context.Context) bool {
	c.mu.Lock()
	loaded := c.state.Quote != nil
	c.mu.Unlock()

	if loaded {
		return false
	}

	c.Refresh(ctx)

	return true
}

// Refresh fetches a new quote and records the outcome in state. It never
// fails: errors become ErrorMessage and the previous quote stays.
// It blocks until the fetch completes or is superseded.
func (c *QuoteController) Refresh(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}

	c.generation++
	gen := c.generation
	c.cancel = cancel
	c.state.Loading = true
	c.state.ErrorMessage = ""
	started := c.commitLocked()
	c.mu.Unlock()

	c.notify(started)

	ctx = logging.WithAttrs(ctx, slog.Uint64("refresh", gen))
	ctx, span := c.tracer.Start(ctx, "quote.refresh",
		trace.WithAttributes(attribute.Int64("quote.refresh.generation", int64(gen))), //nolint:gosec // generation stays far below MaxInt64
	)
	defer span.End()

	c.logger.DebugContext(ctx, "refreshing quote", slog.Uint64("refresh", gen))

	var (
		raw *domain.RawQuote
		err error
	)

	defer func() {
		if r := recover(); r != nil {
			raw, err = nil, domain.NewUnknownError(fmt.Errorf("fetcher panicked: %v", r))
		}

		c.finish(ctx, span, gen, raw, err)
	}()

	raw, err = c.fetcher.Fetch(ctx)
}

// finish applies a fetch result unless a newer refresh has started.
// Loading is cleared on every path that still owns the state.
func (c *QuoteController) finish(ctx context.Context, span trace.Span, gen uint64, raw *domain.RawQuote, err error) {
	if err == nil && raw == nil {
		err = domain.NewNoDataError()
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()

		span.SetAttributes(attribute.String("quote.refresh.outcome", outcomeSuperseded))
		c.count(ctx, outcomeSuperseded)
		c.logger.DebugContext(ctx, "refresh superseded", slog.Uint64("refresh", gen))

		return
	}

	c.cancel = nil
	c.state.Loading = false

	outcome := "success"
	if err != nil {
		outcome = domain.KindOf(err).String()
		c.state.ErrorMessage = UserMessage(err)
	} else {
		c.state.Quote = domain.NewDisplayQuote(*raw)
	}

	finished := c.commitLocked()
	c.mu.Unlock()

	span.SetAttributes(attribute.String("quote.refresh.outcome", outcome))
	c.count(ctx, outcome)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		c.logger.WarnContext(ctx, "quote refresh failed",
			slog.String("kind", outcome),
			slog.Any("error", err),
		)
	} else {
		c.logger.InfoContext(ctx, "quote refreshed",
			slog.String("quote_id", finished.Quote.ID),
			slog.String("author", finished.Quote.Author),
		)
	}

	c.notify(finished)
}

// commitLocked bumps the revision and returns the new snapshot.
// c.mu must be held.
func (c *QuoteController) commitLocked() State {
	c.state.Revision++
	return c.state
}

// notify calls every subscriber with s.
func (c *QuoteController) notify(s State) {
	c.subMu.RLock()
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.RUnlock()

	for _, fn := range subs {
		fn(s)
	}
}

func (c *QuoteController) count(ctx context.Context, outcome string) {
	if c.refreshTotal == nil {
		return
	}

	c.refreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
