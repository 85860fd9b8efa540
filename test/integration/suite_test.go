//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-client/internal/adapters/clients"
	"github.com/jsamuelsen/quote-client/internal/adapters/clients/acl"
	httpadapter "github.com/jsamuelsen/quote-client/internal/adapters/http"
	"github.com/jsamuelsen/quote-client/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-client/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-client/internal/app"
	"github.com/jsamuelsen/quote-client/internal/ports"
)

// fakeQuoteAPI stands in for api.forismatic.com. Its answer can be
// swapped between requests.
type fakeQuoteAPI struct {
	mu     sync.Mutex
	status int
	body   string
	refuse bool
}

func (f *fakeQuoteAPI) answer(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.status, f.body, f.refuse = status, body, false
}

func (f *fakeQuoteAPI) refuseConnections() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.refuse = true
}

func (f *fakeQuoteAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	status, body, refuse := f.status, f.body, f.refuse
	f.mu.Unlock()

	if refuse {
		// Drop the connection without a response so the client sees a
		// transport error.
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
				return
			}
		}
	}

	if r.URL.Query().Get("method") != "getQuote" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// testContext holds state shared across step definitions within a scenario.
type testContext struct {
	api      *fakeQuoteAPI
	upstream *httptest.Server
	service  *httptest.Server
	closers  []func()

	client       *http.Client
	response     *http.Response
	responseBody []byte
}

func newTestContext() *testContext {
	return &testContext{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// reset tears down the scenario's servers and clears response state.
func (tc *testContext) reset() {
	if tc.response != nil && tc.response.Body != nil {
		_ = tc.response.Body.Close()
	}

	for i := len(tc.closers) - 1; i >= 0; i-- {
		tc.closers[i]()
	}

	tc.closers = nil
	tc.api = nil
	tc.upstream = nil
	tc.service = nil
	tc.response = nil
	tc.responseBody = nil
}

// InitializeScenario registers step definitions for each scenario.
func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := newTestContext()

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^the quote client is running$`, tc.theQuoteClientIsRunning)
	ctx.Step(`^the quote API answers (\d+) with body '([^']*)'$`, tc.theQuoteAPIAnswers)
	ctx.Step(`^the quote API refuses connections$`, tc.theQuoteAPIRefusesConnections)
	ctx.Step(`^I ask for a new quote$`, tc.iAskForANewQuote)
	ctx.Step(`^I request GET "([^"]*)"$`, tc.iRequestGET)
	ctx.Step(`^the response status should be (\d+)$`, tc.theResponseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.theResponseShouldContain)
	ctx.Step(`^the view should be "([^"]*)"$`, tc.theViewShouldBe)
	ctx.Step(`^the quote should read "([^"]*)" by "([^"]*)"$`, tc.theQuoteShouldRead)
	ctx.Step(`^no error should be shown$`, tc.noErrorShouldBeShown)
	ctx.Step(`^the error message should be "([^"]*)"$`, tc.theErrorMessageShouldBe)
	ctx.Step(`^the error message should contain "([^"]*)"$`, tc.theErrorMessageShouldContain)
	ctx.Step(`^the quote should not be loading$`, tc.theQuoteShouldNotBeLoading)
}

// theQuoteClientIsRunning starts a fake quote API and the http display
// surface wired to it through the real client, fetcher and controller.
func (tc *testContext) theQuoteClientIsRunning() error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tc.api = &fakeQuoteAPI{status: http.StatusOK, body: `{"quoteText":"","quoteAuthor":""}`}
	tc.upstream = httptest.NewServer(tc.api)
	tc.closers = append(tc.closers, tc.upstream.Close)

	client, err := clients.New(&clients.Config{
		ServiceName: "forismatic",
		Timeout:     5 * time.Second,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	fetcher := acl.NewForismaticFetcher(acl.ForismaticFetcherConfig{
		Client:  client,
		BaseURL: tc.upstream.URL + "/api/1.0/",
		Logger:  logger,
	})

	ctrl := app.NewQuoteController(app.QuoteControllerConfig{Fetcher: fetcher, Logger: logger})

	registry := ports.NewHealthRegistry()
	if err := registry.Register(fetcher); err != nil {
		return fmt.Errorf("registering health check: %w", err)
	}

	quoteHandler := handlers.NewQuoteHandler(handlers.QuoteHandlerConfig{Controller: ctrl})
	tc.closers = append(tc.closers, quoteHandler.Close)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.RouterConfig{
		Logger:        logger,
		ServiceName:   "quote-client-integration",
		HealthHandler: handlers.NewHealthHandler(handlers.HealthHandlerConfig{Registry: registry}),
		QuoteHandler:  quoteHandler,
	})

	tc.service = httptest.NewServer(engine)
	tc.closers = append(tc.closers, tc.service.Close)

	return nil
}

func (tc *testContext) theQuoteAPIAnswers(status int, body string) error {
	tc.api.answer(status, body)
	return nil
}

func (tc *testContext) theQuoteAPIRefusesConnections() error {
	tc.api.refuseConnections()
	return nil
}

// iAskForANewQuote triggers a refresh and waits for it to settle.
func (tc *testContext) iAskForANewQuote() error {
	return tc.do(http.MethodPost, "/api/v1/quote/refresh")
}

// iRequestGET makes a GET request to the specified path.
func (tc *testContext) iRequestGET(path string) error {
	return tc.do(http.MethodGet, path)
}

func (tc *testContext) do(method, path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, tc.service.URL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if tc.response != nil && tc.response.Body != nil {
		_ = tc.response.Body.Close()
	}

	tc.response, err = tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	tc.responseBody, err = io.ReadAll(tc.response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	return nil
}

// theResponseStatusShouldBe asserts the response status code.
func (tc *testContext) theResponseStatusShouldBe(expectedCode int) error {
	if tc.response == nil {
		return fmt.Errorf("no response received")
	}

	if tc.response.StatusCode != expectedCode {
		return fmt.Errorf("expected status %d, got %d. Body: %s",
			expectedCode, tc.response.StatusCode, string(tc.responseBody))
	}

	return nil
}

// theResponseShouldContain asserts the response body contains the given text.
func (tc *testContext) theResponseShouldContain(text string) error {
	if tc.responseBody == nil {
		return fmt.Errorf("no response body")
	}

	if !strings.Contains(string(tc.responseBody), text) {
		return fmt.Errorf("response body does not contain %q.\nBody: %s", text, tc.responseBody)
	}

	return nil
}

func (tc *testContext) state() (dto.QuoteStateResponse, error) {
	var resp dto.QuoteStateResponse

	if tc.responseBody == nil {
		return resp, fmt.Errorf("no response body")
	}

	if err := json.Unmarshal(tc.responseBody, &resp); err != nil {
		return resp, fmt.Errorf("decoding quote state: %w", err)
	}

	return resp, nil
}

func (tc *testContext) theViewShouldBe(view string) error {
	s, err := tc.state()
	if err != nil {
		return err
	}

	if s.View != view {
		return fmt.Errorf("expected view %q, got %q", view, s.View)
	}

	return nil
}

func (tc *testContext) theQuoteShouldRead(text, author string) error {
	s, err := tc.state()
	if err != nil {
		return err
	}

	if s.Quote == nil {
		return fmt.Errorf("no quote on screen")
	}

	if s.Quote.Text != text || s.Quote.Author != author {
		return fmt.Errorf("expected %q by %q, got %q by %q", text, author, s.Quote.Text, s.Quote.Author)
	}

	return nil
}

func (tc *testContext) noErrorShouldBeShown() error {
	s, err := tc.state()
	if err != nil {
		return err
	}

	if s.ErrorMessage != "" {
		return fmt.Errorf("unexpected error message %q", s.ErrorMessage)
	}

	return nil
}

func (tc *testContext) theErrorMessageShouldBe(message string) error {
	s, err := tc.state()
	if err != nil {
		return err
	}

	if s.ErrorMessage != message {
		return fmt.Errorf("expected error message %q, got %q", message, s.ErrorMessage)
	}

	return nil
}

func (tc *testContext) theErrorMessageShouldContain(text string) error {
	s, err := tc.state()
	if err != nil {
		return err
	}

	if !strings.Contains(s.ErrorMessage, text) {
		return fmt.Errorf("error message %q does not contain %q", s.ErrorMessage, text)
	}

	return nil
}

func (tc *testContext) theQuoteShouldNotBeLoading() error {
	s, err := tc.state()
	if err != nil {
		return err
	}

	if s.IsLoading {
		return fmt.Errorf("quote is still loading")
	}

	return nil
}

// TestFeatures runs the GoDog BDD test suite.
func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../features"},
			TestingT: t,
			Tags:     os.Getenv("GODOG_TAGS"),
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
