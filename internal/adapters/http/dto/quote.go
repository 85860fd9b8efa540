package dto

import (
	"github.com/jsamuelsen/quote-client/internal/app"
	"github.com/jsamuelsen/quote-client/internal/domain"
)

// QuoteResponse is the HTTP representation of a displayed quote.
type QuoteResponse struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Author string `json:"author"`
}

// QuoteStateResponse mirrors the presentation state. It is the body of the
// quote endpoints and of every message on the quote stream.
type QuoteStateResponse struct {
	// View is what a client should show: welcome, loading, quote or error.
	View string `json:"view"`

	// Quote is the last loaded quote. It is kept while loading or after a
	// failed refresh.
	Quote *QuoteResponse `json:"quote"`

	IsLoading    bool   `json:"isLoading"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Revision     uint64 `json:"revision"`
}

// NewQuoteResponse converts a domain quote; nil stays nil.
func NewQuoteResponse(q *domain.DisplayQuote) *QuoteResponse {
	if q == nil {
		return nil
	}

	return &QuoteResponse{
		ID:     q.ID,
		Text:   q.Text,
		Author: q.Author,
	}
}

// NewQuoteStateResponse converts a controller snapshot.
func NewQuoteStateResponse(s app.State) *QuoteStateResponse {
	return &QuoteStateResponse{
		View:         app.SelectView(s).String(),
		Quote:        NewQuoteResponse(s.Quote),
		IsLoading:    s.Loading,
		ErrorMessage: s.ErrorMessage,
		Revision:     s.Revision,
	}
}
