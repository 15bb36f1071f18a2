package core

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable means no token data could be obtained at all:
// the upstream fetch failed and no snapshot, not even a stale one, exists.
var ErrUpstreamUnavailable = errors.New("token list unavailable: upstream unreachable and no cached snapshot")

// ErrUnauthorized means the payment API rejected the configured credential.
var ErrUnauthorized = errors.New("payment API rejected credential")

// ErrUnreachable means the payment API could not be reached at all.
var ErrUnreachable = errors.New("payment API unreachable")

// ErrNoPendingQuote means a confirmation was requested with no quote on file.
var ErrNoPendingQuote = errors.New("no recent quote found")

// QuoteError is returned when the quote upstream errors or responds with
// a payload missing required fields.
type QuoteError struct {
	Reason string
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("quote failed: %s", e.Reason)
}

// PreparationError is returned when the transaction payload for a confirmed
// quote cannot be built.
type PreparationError struct {
	Reason string
}

func (e *PreparationError) Error() string {
	return fmt.Sprintf("transaction preparation failed: %s", e.Reason)
}

// UpstreamError is a non-401 HTTP failure from the payment API.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("payment API error: HTTP %d", e.Status)
}
