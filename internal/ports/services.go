// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port conventions:
//   - Context as first parameter for cancellation
//   - Return domain types, never wire DTOs
//   - Failures are *domain.FetchError values
package ports

import (
	"context"

	"github.com/jsamuelsen/quote-client/internal/domain"
)

// QuoteFetcher retrieves one random quote per call.
//
// Every call performs a fresh round trip; implementations do not cache.
// Concurrent calls are independent and unordered.
type QuoteFetcher interface {
	// Fetch returns the quote as delivered by the upstream API.
	// Failures are reported as *domain.FetchError (see domain.Kind).
	Fetch(ctx context.Context) (*domain.RawQuote, error)
}
