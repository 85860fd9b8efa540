package app

import (
	"fmt"

	"github.com/jsamuelsen/quote-client/internal/domain"
)

// UserMessage converts a fetch failure into the sentence shown to the user.
// Errors that are not *domain.FetchError are reported as unknown.
func UserMessage(err error) string {
	fetchErr := domain.AsFetchError(err)

	switch fetchErr.Kind {
	case domain.KindInvalidURL:
		return "The API URL is invalid."
	case domain.KindRequestFailed:
		return fmt.Sprintf("The network request failed: %s.", causeText(fetchErr))
	case domain.KindUnexpectedStatusCode:
		return fmt.Sprintf("Unexpected server response (code %d).", fetchErr.StatusCode)
	case domain.KindNoData:
		return "No data received from the server."
	case domain.KindDecodingFailed:
		return fmt.Sprintf("Could not parse the quote data: %s.", causeText(fetchErr))
	case domain.KindUnknown:
		return fmt.Sprintf("An unknown error occurred: %s.", causeText(fetchErr))
	default:
		return fmt.Sprintf("An unknown error occurred: %s.", fetchErr.Error())
	}
}

// causeText describes the underlying cause, falling back to the kind's
// own text when there is none.
func causeText(e *domain.FetchError) string {
	if e.Err == nil {
		return e.Error()
	}

	return e.Err.Error()
}
