package app

import "github.com/jsamuelsen/quote-client/internal/domain"

// State is what a display surface renders. Snapshots are values; the
// controller never mutates a State it has handed out.
type State struct {
	// Quote is the last successfully fetched quote, nil until the first success.
	// A failed refresh leaves it in place.
	Quote *domain.DisplayQuote

	// Loading is true while a refresh is in flight.
	Loading bool

	// ErrorMessage describes the last failed refresh. Empty when the last
	// refresh succeeded or a new one has started.
	ErrorMessage string

	// Revision increases with every state change. Subscribers may be called
	// out of order and should drop snapshots older than the one they hold.
	Revision uint64
}

// View names what a display surface should show for a State.
type View int

const (
	// ViewWelcome is shown before anything has been fetched.
	ViewWelcome View = iota

	// ViewLoading is shown while a refresh is in flight.
	ViewLoading

	// ViewQuote shows the current quote.
	ViewQuote

	// ViewError shows the error message.
	ViewError
)

// String returns the view name used in JSON payloads.
func (v View) String() string {
	switch v {
	case ViewLoading:
		return "loading"
	case ViewQuote:
		return "quote"
	case ViewError:
		return "error"
	default:
		return "welcome"
	}
}

// SelectView applies the rendering priority: an error wins over loading,
// loading wins over a quote, and a quote wins over the welcome screen.
func SelectView(s State) View {
	switch {
	case s.ErrorMessage != "":
		return ViewError
	case s.Loading:
		return ViewLoading
	case s.Quote != nil:
		return ViewQuote
	default:
		return ViewWelcome
	}
}
