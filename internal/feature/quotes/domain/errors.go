// Package domain defines domain-level errors for the quotes feature.
package domain

import "errors"

// Domain errors for quote retrieval.
// Adapters wrap these with fmt.Errorf("%w: ...") so callers can match them with errors.Is.
var (
	// ErrNetwork indicates a transport failure or a non-2xx response from the upstream quote API.
	ErrNetwork = errors.New("quote upstream unavailable")

	// ErrParse indicates that the upstream body (or a cached payload) is not valid JSON
	// or does not match the expected response shape.
	ErrParse = errors.New("quote response malformed")

	// ErrNoData indicates that the live fetch failed and no unexpired cache entry could
	// stand in for it. This is the only error the pollers expose to consumers.
	ErrNoData = errors.New("no quote data available")

	// ErrUnknownInstrument indicates a code that no configured board tracks.
	ErrUnknownInstrument = errors.New("unknown instrument")
)
