// Package domain contains business logic types and errors.
// Fetch errors describe why a quote could not be obtained. They are
// transport-agnostic: adapters classify their own failures into a Kind.
package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure. The set is closed.
type Kind int

const (
	// KindUnknown is the fallback for failures that fit no other kind.
	KindUnknown Kind = iota

	// KindInvalidURL means the request URL could not be built.
	KindInvalidURL

	// KindRequestFailed means the request never produced a response (DNS, refused connection, ...).
	KindRequestFailed

	// KindUnexpectedStatusCode means the server answered outside the 2xx range.
	KindUnexpectedStatusCode

	// KindNoData means the server answered without the expected content.
	// Reserved: the current fetch flow reports empty bodies as KindDecodingFailed.
	KindNoData

	// KindDecodingFailed means the body did not have the expected shape.
	KindDecodingFailed
)

// Sentinel errors for use with errors.Is(), one per Kind.
var (
	ErrUnknown              = errors.New("unknown error")
	ErrInvalidURL           = errors.New("invalid url")
	ErrRequestFailed        = errors.New("request failed")
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrNoData               = errors.New("no data")
	ErrDecodingFailed       = errors.New("decoding failed")
)

// String returns a machine-friendly name for the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindRequestFailed:
		return "request_failed"
	case KindUnexpectedStatusCode:
		return "unexpected_status_code"
	case KindNoData:
		return "no_data"
	case KindDecodingFailed:
		return "decoding_failed"
	default:
		return "unknown"
	}
}

// sentinel returns the sentinel error matching the kind.
func (k Kind) sentinel() error {
	switch k {
	case KindInvalidURL:
		return ErrInvalidURL
	case KindRequestFailed:
		return ErrRequestFailed
	case KindUnexpectedStatusCode:
		return ErrUnexpectedStatusCode
	case KindNoData:
		return ErrNoData
	case KindDecodingFailed:
		return ErrDecodingFailed
	default:
		return ErrUnknown
	}
}

// FetchError is returned by quote fetchers.
// StatusCode is only meaningful for KindUnexpectedStatusCode.
type FetchError struct {
	Kind       Kind
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	switch {
	case e.Kind == KindUnexpectedStatusCode:
		return fmt.Sprintf("%s: %d", e.Kind.sentinel(), e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind.sentinel(), e.Err)
	default:
		return e.Kind.sentinel().Error()
	}
}

// Unwrap exposes both the kind sentinel and the underlying cause,
// so errors.Is works against either.
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}

	return []error{e.Kind.sentinel(), e.Err}
}

// NewInvalidURLError creates an invalid URL error.
func NewInvalidURLError(cause error) error {
	return &FetchError{Kind: KindInvalidURL, Err: cause}
}

// NewRequestFailedError creates a transport failure error.
func NewRequestFailedError(cause error) error {
	return &FetchError{Kind: KindRequestFailed, Err: cause}
}

// NewUnexpectedStatusCodeError creates an error for a non-2xx response.
func NewUnexpectedStatusCodeError(code int) error {
	return &FetchError{Kind: KindUnexpectedStatusCode, StatusCode: code}
}

// NewNoDataError creates an error for a response without content.
func NewNoDataError() error {
	return &FetchError{Kind: KindNoData}
}

// NewDecodingFailedError creates an error for an undecodable body.
func NewDecodingFailedError(cause error) error {
	return &FetchError{Kind: KindDecodingFailed, Err: cause}
}

// NewUnknownError creates a fallback error.
func NewUnknownError(cause error) error {
	return &FetchError{Kind: KindUnknown, Err: cause}
}

// AsFetchError classifies any error as a FetchError.
// Errors that are not FetchErrors become KindUnknown with err as the cause.
func AsFetchError(err error) *FetchError {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr
	}

	return &FetchError{Kind: KindUnknown, Err: err}
}

// KindOf returns the kind of err, KindUnknown for foreign errors.
func KindOf(err error) Kind {
	return AsFetchError(err).Kind
}

// IsInvalidURL checks if an error is an invalid URL error.
func IsInvalidURL(err error) bool {
	return errors.Is(err, ErrInvalidURL)
}

// IsRequestFailed checks if an error is a transport failure.
func IsRequestFailed(err error) bool {
	return errors.Is(err, ErrRequestFailed)
}

// IsUnexpectedStatusCode checks if an error is a non-2xx response error.
func IsUnexpectedStatusCode(err error) bool {
	return errors.Is(err, ErrUnexpectedStatusCode)
}

// IsDecodingFailed checks if an error is a decoding error.
func IsDecodingFailed(err error) bool {
	return errors.Is(err, ErrDecodingFailed)
}
