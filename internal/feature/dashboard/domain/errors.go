// Package domain defines domain-level errors for the dashboard feature.
package domain

import "errors"

var (
	// ErrNoData indicates that the provider returned an empty result for the
	// requested symbol or range. It is turned into the placeholder dashboard
	// instead of being reported to the client.
	ErrNoData = errors.New("no data available")

	// ErrUpstream indicates that the market-data provider could not be reached
	// or answered with an error.
	ErrUpstream = errors.New("market data provider error")

	// ErrUnsupportedTicker indicates a ticker outside the configured set.
	ErrUnsupportedTicker = errors.New("unsupported ticker")

	// ErrInvalidRange indicates an end date before the start date.
	ErrInvalidRange = errors.New("end date is before start date")
)
