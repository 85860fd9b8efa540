package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-client/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-client/internal/app"
	"github.com/jsamuelsen/quote-client/internal/domain"
	"github.com/jsamuelsen/quote-client/internal/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupQuoteHandler wires a real controller to a mocked fetcher.
func setupQuoteHandler(t *testing.T) (*gin.Engine, *QuoteHandler, *app.QuoteController, *mocks.MockQuoteFetcher) {
	t.Helper()

	fetcher := mocks.NewMockQuoteFetcher(t)
	ctrl := app.NewQuoteController(app.QuoteControllerConfig{
		Fetcher: fetcher,
		Logger:  discardLogger(),
	})

	handler := NewQuoteHandler(QuoteHandlerConfig{Controller: ctrl})
	t.Cleanup(handler.Close)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))

	return router, handler, ctrl, fetcher
}

func decodeState(t *testing.T, body []byte) dto.QuoteStateResponse {
	t.Helper()

	var resp dto.QuoteStateResponse
	require.NoError(t, json.Unmarshal(body, &resp))

	return resp
}

func TestNewQuoteHandler_PanicsWithoutController(t *testing.T) {
	assert.Panics(t, func() {
		NewQuoteHandler(QuoteHandlerConfig{})
	})
}

func TestQuoteHandler_GetQuote_MountsOnce(t *testing.T) {
	router, _, ctrl, fetcher := setupQuoteHandler(t)
	fetcher.EXPECT().Fetch(mock.Anything).
		Return(&domain.RawQuote{Text: "Stay hungry.", Author: "Anon"}, nil).Once()

	w := serve(router, http.MethodGet, "/api/v1/quote")
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		return ctrl.Snapshot().Quote != nil && !ctrl.Snapshot().Loading
	}, 2*time.Second, 10*time.Millisecond)

	w = serve(router, http.MethodGet, "/api/v1/quote")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeState(t, w.Body.Bytes())
	assert.Equal(t, "quote", resp.View)
	require.NotNil(t, resp.Quote)
	assert.Equal(t, "Stay hungry.", resp.Quote.Text)
	assert.Equal(t, "Anon", resp.Quote.Author)
	assert.NotEmpty(t, resp.Quote.ID)
	assert.False(t, resp.IsLoading)
	assert.Empty(t, resp.ErrorMessage)
}

func TestQuoteHandler_RefreshQuote(t *testing.T) {
	tests := []struct {
		name        string
		raw         *domain.RawQuote
		err         error
		wantView    string
		wantMessage string
	}{
		{
			name:     "success",
			raw:      &domain.RawQuote{Text: "Stay hungry.", Author: "Anon"},
			wantView: "quote",
		},
		{
			name:        "server error",
			err:         domain.NewUnexpectedStatusCodeError(http.StatusInternalServerError),
			wantView:    "error",
			wantMessage: "Unexpected server response (code 500).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _, _, fetcher := setupQuoteHandler(t)
			fetcher.EXPECT().Fetch(mock.Anything).Return(tt.raw, tt.err).Once()

			w := serve(router, http.MethodPost, "/api/v1/quote/refresh")

			assert.Equal(t, http.StatusOK, w.Code)

			resp := decodeState(t, w.Body.Bytes())
			assert.Equal(t, tt.wantView, resp.View)
			assert.Equal(t, tt.wantMessage, resp.ErrorMessage)
			assert.False(t, resp.IsLoading)
			assert.Equal(t, uint64(2), resp.Revision)
		})
	}
}

func TestQuoteHandler_RefreshQuote_KeepsQuoteOnFailure(t *testing.T) {
	router, _, _, fetcher := setupQuoteHandler(t)
	fetcher.EXPECT().Fetch(mock.Anything).
		Return(&domain.RawQuote{Text: "Old", Author: "Someone"}, nil).Once()
	fetcher.EXPECT().Fetch(mock.Anything).
		Return(nil, domain.NewUnexpectedStatusCodeError(http.StatusInternalServerError)).Once()

	first := decodeState(t, serve(router, http.MethodPost, "/api/v1/quote/refresh").Body.Bytes())
	second := decodeState(t, serve(router, http.MethodPost, "/api/v1/quote/refresh").Body.Bytes())

	assert.Equal(t, "error", second.View)
	require.NotNil(t, second.Quote)
	assert.Equal(t, first.Quote, second.Quote)
}

func TestQuoteHandler_RefreshQuote_ClientGoneAway(t *testing.T) {
	router, _, ctrl, fetcher := setupQuoteHandler(t)
	fetcher.EXPECT().Fetch(mock.Anything).
		RunAndReturn(func(ctx context.Context) (*domain.RawQuote, error) {
			if err := ctx.Err(); err != nil {
				return nil, domain.NewRequestFailedError(err)
			}

			return &domain.RawQuote{Text: "Stay hungry.", Author: "Anon"}, nil
		}).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quote/refresh", http.NoBody).WithContext(ctx)
	router.ServeHTTP(httptest.NewRecorder(), req)

	state := ctrl.Snapshot()
	assert.Empty(t, state.ErrorMessage)
	assert.False(t, state.Loading)
	require.NotNil(t, state.Quote)
	assert.Equal(t, "Stay hungry.", state.Quote.Text)
}

func TestQuoteHandler_Routes(t *testing.T) {
	router, _, _, _ := setupQuoteHandler(t)

	routeMap := make(map[string]bool)
	for _, r := range router.Routes() {
		routeMap[r.Method+" "+r.Path] = true
	}

	for _, expected := range []string{
		"GET /api/v1/quote",
		"POST /api/v1/quote/refresh",
		"GET /api/v1/quote/stream",
	} {
		assert.True(t, routeMap[expected], "missing route: %s", expected)
	}
}

func dialStream(t *testing.T, router http.Handler) (*websocket.Conn, context.Context) {
	t.Helper()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/quote/stream"

	conn, resp, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	t.Cleanup(func() { _ = conn.CloseNow() })

	return conn, ctx
}

// readUntil reads stream messages until one satisfies done.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, done func(dto.QuoteStateResponse) bool) []dto.QuoteStateResponse {
	t.Helper()

	var seen []dto.QuoteStateResponse

	for {
		var msg dto.QuoteStateResponse
		require.NoError(t, wsjson.Read(ctx, conn, &msg))

		seen = append(seen, msg)
		if done(msg) {
			return seen
		}
	}
}

func TestQuoteHandler_Stream(t *testing.T) {
	router, _, ctrl, fetcher := setupQuoteHandler(t)

	release := make(chan struct{})
	fetcher.EXPECT().Fetch(mock.Anything).RunAndReturn(func(context.Context) (*domain.RawQuote, error) {
		<-release
		return &domain.RawQuote{Text: "Stay hungry.", Author: "Anon"}, nil
	}).Once()
	fetcher.EXPECT().Fetch(mock.Anything).
		Return(nil, domain.NewUnexpectedStatusCodeError(http.StatusInternalServerError)).Once()

	conn, ctx := dialStream(t, router)

	// Connecting mounts the controller.
	close(release)

	seen := readUntil(t, ctx, conn, func(m dto.QuoteStateResponse) bool { return m.View == "quote" })
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i].Revision, seen[i-1].Revision, "revisions only move forward")
	}

	go ctrl.Refresh(context.Background())

	seen = readUntil(t, ctx, conn, func(m dto.QuoteStateResponse) bool { return m.View == "error" })
	last := seen[len(seen)-1]
	assert.Equal(t, "Unexpected server response (code 500).", last.ErrorMessage)
	require.NotNil(t, last.Quote)
	assert.Equal(t, "Stay hungry.", last.Quote.Text)
}

func TestQuoteHandler_Stream_ClosedOnShutdown(t *testing.T) {
	router, handler, ctrl, fetcher := setupQuoteHandler(t)
	fetcher.EXPECT().Fetch(mock.Anything).
		Return(&domain.RawQuote{Text: "t", Author: "a"}, nil).Once()

	conn, ctx := dialStream(t, router)

	readUntil(t, ctx, conn, func(m dto.QuoteStateResponse) bool { return m.View == "quote" })
	require.NotNil(t, ctrl.Snapshot().Quote)

	handler.Close()

	var err error
	for err == nil {
		var msg dto.QuoteStateResponse
		err = wsjson.Read(ctx, conn, &msg)
	}

	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
}
