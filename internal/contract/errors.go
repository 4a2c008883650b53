package contract

import "errors"

var (
	// ErrDataUnavailable is returned when a required input table cannot be read.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrTickerNotFound is returned when a ticker has no quarterly fundamentals.
	ErrTickerNotFound = errors.New("ticker not found")

	// ErrThesisNotFound is returned when a command needs a thesis and none exists.
	ErrThesisNotFound = errors.New("thesis not found")

	// ErrTickerRequired is returned when a single-ticker command has no ticker.
	ErrTickerRequired = errors.New("ticker is required")
)
