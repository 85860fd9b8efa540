package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-client/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-client/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-client/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-client/internal/app"
	"github.com/jsamuelsen/quote-client/internal/domain"
	"github.com/jsamuelsen/quote-client/internal/mocks"
	"github.com/jsamuelsen/quote-client/internal/platform/config"
	"github.com/jsamuelsen/quote-client/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		IdleTimeout:     5 * time.Second,
		ShutdownTimeout: 2 * time.Second,
		MaxRequestSize:  1024,
	}
}

// setupRouter builds the full router around a mocked fetcher.
func setupRouter(t *testing.T) (*gin.Engine, *handlers.QuoteHandler, *mocks.MockQuoteFetcher) {
	t.Helper()

	fetcher := mocks.NewMockQuoteFetcher(t)
	ctrl := app.NewQuoteController(app.QuoteControllerConfig{Fetcher: fetcher, Logger: discardLogger()})

	quoteHandler := handlers.NewQuoteHandler(handlers.QuoteHandlerConfig{Controller: ctrl})
	t.Cleanup(quoteHandler.Close)

	engine := gin.New()
	SetupRouter(engine, RouterConfig{
		Logger:        discardLogger(),
		ServiceName:   "quote-client-test",
		HealthHandler: handlers.NewHealthHandler(handlers.HealthHandlerConfig{Registry: ports.NewHealthRegistry()}),
		QuoteHandler:  quoteHandler,
	})

	return engine, quoteHandler, fetcher
}

func TestSetupRouter_Routes(t *testing.T) {
	engine, _, _ := setupRouter(t)

	routeMap := make(map[string]bool)
	for _, r := range engine.Routes() {
		routeMap[r.Method+" "+r.Path] = true
	}

	for _, expected := range []string{
		"GET /-/live",
		"GET /-/ready",
		"GET /-/build",
		"GET /-/metrics",
		"GET /api/v1/quote",
		"POST /api/v1/quote/refresh",
		"GET /api/v1/quote/stream",
	} {
		assert.True(t, routeMap[expected], "missing route: %s", expected)
	}
}

func TestSetupRouter_ErrorEnvelopes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantCode   dto.ErrorCode
	}{
		{name: "unknown route", method: http.MethodGet, path: "/api/v1/quotes", wantStatus: http.StatusNotFound, wantCode: dto.ErrorCodeNotFound},
		{name: "wrong method", method: http.MethodDelete, path: "/api/v1/quote", wantStatus: http.StatusMethodNotAllowed, wantCode: dto.ErrorCodeMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _, _ := setupRouter(t)

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestSetupRouter_RequestIDReachesFetcher(t *testing.T) {
	engine, _, fetcher := setupRouter(t)

	var seen string
	fetcher.EXPECT().Fetch(mock.Anything).RunAndReturn(func(ctx context.Context) (*domain.RawQuote, error) {
		seen = middleware.RequestIDFromContext(ctx)
		return &domain.RawQuote{Text: "t", Author: "a"}, nil
	}).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quote/refresh", nil)
	req.Header.Set(middleware.HeaderRequestID, "req-abc")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-abc", w.Header().Get(middleware.HeaderRequestID))
	assert.Equal(t, "req-abc", seen)
}

func TestSetupRouter_Empty(t *testing.T) {
	engine := gin.New()
	SetupRouter(engine, RouterConfig{Logger: discardLogger()})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/live", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRespondWithErrorCode(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithErrorCode(c, dto.ErrorCodeUnavailable, "quote api down")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":{"code":"SERVICE_UNAVAILABLE","message":"quote api down"}}`, w.Body.String())
}

func TestAbortWithErrorCode(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	AbortWithErrorCode(c, dto.ErrorCodeBadRequest, "bad")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_New(t *testing.T) {
	cfg := testServerConfig()
	cfg.Port = 8080

	s := New(cfg, nil)

	require.NotNil(t, s.Engine())
	assert.Equal(t, "127.0.0.1:8080", s.Addr())
}

func TestServer_MaxBodySize(t *testing.T) {
	s := New(testServerConfig(), discardLogger())
	s.Engine().POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}

		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 2048))))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestServer_RunListener_GracefulShutdown(t *testing.T) {
	s := New(testServerConfig(), discardLogger())
	s.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- s.RunListener(ctx, l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_ShutdownClosesStreams(t *testing.T) {
	s := New(testServerConfig(), discardLogger())

	fetcher := mocks.NewMockQuoteFetcher(t)
	fetcher.EXPECT().Fetch(mock.Anything).Return(&domain.RawQuote{Text: "t", Author: "a"}, nil).Maybe()

	ctrl := app.NewQuoteController(app.QuoteControllerConfig{Fetcher: fetcher, Logger: discardLogger()})
	ctrl.Refresh(context.Background())

	quoteHandler := handlers.NewQuoteHandler(handlers.QuoteHandlerConfig{Controller: ctrl})
	SetupRouter(s.Engine(), RouterConfig{Logger: discardLogger(), QuoteHandler: quoteHandler})
	s.RegisterOnShutdown(quoteHandler.Close)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- s.RunListener(ctx, l) }()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer dialCancel()

	conn, resp, err := websocket.Dial(dialCtx, "ws://"+l.Addr().String()+"/api/v1/quote/stream", nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = conn.CloseNow() }()

	_, _, err = conn.Read(dialCtx)
	require.NoError(t, err)

	cancel()

	_, _, err = conn.Read(dialCtx)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
