// Package domain contains core business entities and rules.
package domain

import "github.com/google/uuid"

// RawQuote is a quote exactly as the quote API delivered it.
// It is created once per successful fetch and never modified.
type RawQuote struct {
	// Text is the quotation itself. May be empty.
	Text string

	// Author is who said or wrote the quote. May be empty.
	Author string
}

// DisplayQuote is the display-ready form of a RawQuote.
// The ID only gives views a stable identity for the current quote;
// it is not persisted and carries no meaning across fetches.
type DisplayQuote struct {
	ID     string
	Text   string
	Author string
}

// NewDisplayQuote derives a DisplayQuote from raw, assigning a fresh identifier.
func NewDisplayQuote(raw RawQuote) *DisplayQuote {
	return &DisplayQuote{
		ID:     uuid.NewString(),
		Text:   raw.Text,
		Author: raw.Author,
	}
}
