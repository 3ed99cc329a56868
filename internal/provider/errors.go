package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable covers transport failures, non-success statuses and
	// provider-side refusals.
	ErrUnreachable = errors.New("provider unreachable")
	// ErrEmptyResult means the provider answered but knows nothing about the ticker.
	ErrEmptyResult = errors.New("no data for ticker")

	ErrUnsupported   = errors.New("unsupported provider")
	ErrInvalidTicker = errors.New("ticker must not be empty")
)

// FetchError is returned by sources when no record could be produced.
type FetchError struct {
	Kind     error // ErrUnreachable or ErrEmptyResult
	Provider ID
	Ticker   string
	Err      error
}

// Unreachable wraps err as an ErrUnreachable failure.
func Unreachable(id ID, ticker string, err error) *FetchError {
	return &FetchError{Kind: ErrUnreachable, Provider: id, Ticker: ticker, Err: err}
}

// EmptyResult reports that id returned no entity for ticker.
func EmptyResult(id ID, ticker string) *FetchError {
	return &FetchError{Kind: ErrEmptyResult, Provider: id, Ticker: ticker}
}

// Failed classifies a client error: anything wrapping ErrEmptyResult stays
// an empty result, everything else is unreachable.
func Failed(id ID, ticker string, err error) *FetchError {
	if errors.Is(err, ErrEmptyResult) {
		return EmptyResult(id, ticker)
	}
	return Unreachable(id, ticker, err)
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Provider, e.Ticker, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Ticker, e.Kind)
}

func (e *FetchError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Message is a short diagnostic suitable for end users.
func (e *FetchError) Message() string {
	if errors.Is(e.Kind, ErrEmptyResult) {
		return fmt.Sprintf("%s has no data for %s. Check the ticker or try a different source.", e.Provider.DisplayName(), e.Ticker)
	}
	return fmt.Sprintf("Could not reach %s for %s. Please try again later or pick a different source.", e.Provider.DisplayName(), e.Ticker)
}

// UserMessage returns the user-facing text for any fetch error.
func UserMessage(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Message()
	}
	switch {
	case errors.Is(err, ErrInvalidTicker):
		return "Please enter a ticker symbol."
	case errors.Is(err, ErrUnsupported):
		return "Unknown data source."
	}
	return "Data fetch failed. Please check ticker or try a different source."
}
