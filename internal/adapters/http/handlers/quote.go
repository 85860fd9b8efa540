package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-client/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-client/internal/app"
	"github.com/jsamuelsen/quote-client/internal/platform/logging"
)

// DefaultStreamWriteTimeout bounds a single websocket write.
const DefaultStreamWriteTimeout = 5 * time.Second

// QuoteController is the part of app.QuoteController the HTTP surface needs.
type QuoteController interface {
	Snapshot() app.State
	Mount(ctx context.Context) bool
	Refresh(ctx context.Context)
	Subscribe(fn func(app.State)) (unsubscribe func())
}

// QuoteHandlerConfig contains configuration for the quote handler.
type QuoteHandlerConfig struct {
	Controller QuoteController

	// OriginPatterns lists extra hosts allowed to open the stream from a
	// browser. Same-origin requests are always allowed.
	OriginPatterns []string

	// WriteTimeout bounds each stream write. Defaults to DefaultStreamWriteTimeout.
	WriteTimeout time.Duration
}

// QuoteHandler exposes the presentation state over HTTP.
type QuoteHandler struct {
	ctrl           QuoteController
	originPatterns []string
	writeTimeout   time.Duration

	mountOnce sync.Once

	// closing is cancelled by Close so open streams end on shutdown.
	closing context.Context
	stop    context.CancelFunc
}

// NewQuoteHandler creates a new quote handler.
// Panics if Controller is nil.
func NewQuoteHandler(cfg QuoteHandlerConfig) *QuoteHandler {
	if cfg.Controller == nil {
		panic("QuoteHandler: Controller is required")
	}

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = DefaultStreamWriteTimeout
	}

	closing, cancel := context.WithCancel(context.Background())

	return &QuoteHandler{
		ctrl:           cfg.Controller,
		originPatterns: cfg.OriginPatterns,
		writeTimeout:   writeTimeout,
		closing:        closing,
		stop:           cancel,
	}
}

// Close ends every open stream with StatusGoingAway. Hijacked websocket
// connections are not tracked by http.Server.Shutdown, so the server calls
// this from its shutdown hook.
func (h *QuoteHandler) Close() {
	h.stop()
}

// mount triggers the first fetch once, the way a screen appearing would.
// The fetch outlives the request that triggered it.
func (h *QuoteHandler) mount(c *gin.Context) {
	h.mountOnce.Do(func() {
		ctx := context.WithoutCancel(c.Request.Context())
		go h.ctrl.Mount(ctx)
	})
}

// GetQuote handles GET /api/v1/quote.
// The first request mounts the controller, so it usually reports loading.
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	h.mount(c)

	c.JSON(http.StatusOK, dto.NewQuoteStateResponse(h.ctrl.Snapshot()))
}

// RefreshQuote handles POST /api/v1/quote/refresh.
// It waits for the refresh to settle and returns the resulting state.
// A failed fetch is still a 200: the failure is part of the state.
// The refresh outlives the caller: a client hanging up must not leave a
// cancellation error in the state every viewer shares.
func (h *QuoteHandler) RefreshQuote(c *gin.Context) {
	h.ctrl.Refresh(context.WithoutCancel(c.Request.Context()))

	c.JSON(http.StatusOK, dto.NewQuoteStateResponse(h.ctrl.Snapshot()))
}

// Stream handles GET /api/v1/quote/stream. It upgrades to a websocket,
// sends the current state, then sends every newer state until the client
// goes away. Bursts of changes are coalesced; the client always ends up
// with the latest state.
func (h *QuoteHandler) Stream(c *gin.Context) {
	logger := logging.FromContext(c.Request.Context())

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		// Accept has already written the response.
		logger.WarnContext(c.Request.Context(), "websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer func() { _ = conn.CloseNow() }()

	changed := make(chan struct{}, 1)
	unsubscribe := h.ctrl.Subscribe(func(app.State) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	h.mount(c)

	// The client sends nothing; CloseRead handles control frames and
	// cancels ctx once the peer closes.
	ctx := conn.CloseRead(c.Request.Context())

	state := h.ctrl.Snapshot()
	if err := h.write(ctx, conn, state); err != nil {
		logger.DebugContext(ctx, "quote stream closed", slog.Any("error", err))
		return
	}

	sent := state.Revision

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return

		case <-h.closing.Done():
			_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
			return

		case <-changed:
			state := h.ctrl.Snapshot()
			if state.Revision <= sent {
				continue
			}

			if err := h.write(ctx, conn, state); err != nil {
				logger.DebugContext(ctx, "quote stream closed", slog.Any("error", err))
				return
			}

			sent = state.Revision
		}
	}
}

func (h *QuoteHandler) write(ctx context.Context, conn *websocket.Conn, s app.State) error {
	ctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()

	return wsjson.Write(ctx, conn, dto.NewQuoteStateResponse(s))
}

// RegisterRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quote := rg.Group("/quote")
	quote.GET("", h.GetQuote)
	quote.POST("/refresh", h.RefreshQuote)
	quote.GET("/stream", h.Stream)
}
