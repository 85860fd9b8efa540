package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jsamuelsen/quote-client/internal/adapters/clients"
	"github.com/jsamuelsen/quote-client/internal/domain"
	"github.com/jsamuelsen/quote-client/internal/platform/logging"
)

// Fixed query of the forismatic random quote call.
const (
	queryMethod = "getQuote"
	queryFormat = "json"
	queryLang   = "en"
)

// ForismaticFetcherConfig contains configuration for the forismatic fetcher.
type ForismaticFetcherConfig struct {
	// Client performs the HTTP round trip.
	Client *clients.Client

	// BaseURL is the API endpoint, e.g. "https://api.forismatic.com/api/1.0/".
	BaseURL string

	// Name identifies the upstream in health checks. Defaults to "forismatic".
	Name string

	// Logger is the structured logger.
	Logger *slog.Logger
}

// ForismaticFetcher implements ports.QuoteFetcher against the forismatic API.
// Each Fetch is one GET with no retry and no caching; overlapping calls do
// not coordinate with each other.
type ForismaticFetcher struct {
	client  *clients.Client
	baseURL string
	name    string
	logger  *slog.Logger
}

// NewForismaticFetcher creates a new forismatic adapter.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
// The base URL is checked on every Fetch, not here, so a bad URL surfaces
// as an InvalidURL fetch error.
func NewForismaticFetcher(cfg ForismaticFetcherConfig) *ForismaticFetcher {
	if cfg.Client == nil {
		panic("ForismaticFetcher: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := cfg.Name
	if name == "" {
		name = "forismatic"
	}

	return &ForismaticFetcher{
		client:  cfg.Client,
		baseURL: cfg.BaseURL,
		name:    name,
		logger:  logger,
	}
}

// forismaticQuote is the external DTO of the forismatic API.
// Pointers tell a missing field apart from an empty one: both fields must
// be present, but an empty string is a valid value. Other fields
// (senderName, senderLink, quoteLink) are ignored.
type forismaticQuote struct {
	QuoteText   *string `json:"quoteText"   validate:"required"`
	QuoteAuthor *string `json:"quoteAuthor" validate:"required"`
}

// dtoValidate checks external DTOs. Field names in errors use the JSON names.
var dtoValidate = newDTOValidator()

func newDTOValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// Fetch requests one random quote.
// Implements ports.QuoteFetcher. Every failure is a *domain.FetchError.
func (f *ForismaticFetcher) Fetch(ctx context.Context) (*domain.RawQuote, error) {
	u, err := f.requestURL()
	if err != nil {
		return nil, domain.NewInvalidURLError(err)
	}

	f.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("url", u.String()))
	f.logger.DebugContext(ctx, "fetching random quote")

	resp, err := f.client.Get(ctx, u)
	if err != nil {
		return nil, domain.NewRequestFailedError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	f.logger.Log(ctx, logging.LevelTrace, "request complete", slog.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.WarnContext(ctx, "quote API error", slog.Int("status_code", resp.StatusCode))
		return nil, domain.NewUnexpectedStatusCodeError(resp.StatusCode)
	}

	quote, err := decodeQuote(resp.Body)
	if err != nil {
		f.logger.WarnContext(ctx, "quote API returned an unreadable body", slog.Any("error", err))
		return nil, domain.NewDecodingFailedError(err)
	}

	f.logger.Log(ctx, logging.LevelTrace, "translated external DTO to domain",
		slog.String("author", quote.Author))

	return quote, nil
}

// requestURL builds base?format=json&lang=en&method=getQuote.
// Parameters already on the base URL are kept; the fixed ones win.
func (f *ForismaticFetcher) requestURL() (*url.URL, error) {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return nil, err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return nil, errors.New("missing host")
	}

	query := u.Query()
	query.Set("method", queryMethod)
	query.Set("format", queryFormat)
	query.Set("lang", queryLang)
	u.RawQuery = query.Encode()

	return u, nil
}

// errTrailingData rejects bodies with content after the quote object.
var errTrailingData = errors.New("unexpected data after quote object")

// decodeQuote translates the response body into a domain RawQuote.
func decodeQuote(body io.Reader) (*domain.RawQuote, error) {
	var external forismaticQuote

	dec := json.NewDecoder(body)
	if err := dec.Decode(&external); err != nil {
		return nil, err
	}

	// The body must hold exactly one JSON value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}

	if err := dtoValidate.Struct(&external); err != nil {
		return nil, describeValidation(err)
	}

	return &domain.RawQuote{
		Text:   *external.QuoteText,
		Author: *external.QuoteAuthor,
	}, nil
}

// describeValidation turns validator output into "missing field ..." errors.
func describeValidation(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	missing := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		missing = append(missing, fe.Field())
	}

	return fmt.Errorf("missing field %s", strings.Join(missing, ", "))
}

// Name returns the health check name for this fetcher.
// Implements ports.HealthChecker.
func (f *ForismaticFetcher) Name() string {
	return f.name
}

// Check reports the upstream healthy when a quote can be fetched.
// Implements ports.HealthChecker.
func (f *ForismaticFetcher) Check(ctx context.Context) error {
	_, err := f.Fetch(ctx)
	return err
}
