package domain

import (
	"errors"
	"fmt"
)

// Collaborator and pipeline failure modes. Only malformed input is fatal to a
// request; every external failure is absorbed by a fallback branch.
var (
	// ErrInsufficientHistory marks a product that lacks enough data points
	// for a meaningful forecast. Non-fatal; the product is scored from
	// history alone.
	ErrInsufficientHistory = errors.New("insufficient order history")

	// ErrForecastTimeout is returned when the forecaster call exceeds its
	// deadline. Routes the whole request into the fallback path.
	ErrForecastTimeout = errors.New("forecaster call timed out")

	// ErrInsightTimeout is returned when the LLM call exceeds its deadline.
	// Routes into the templated-rationale path.
	ErrInsightTimeout = errors.New("insight call timed out")

	// ErrCacheUnavailable marks a cache store failure, treated as a miss.
	ErrCacheUnavailable = errors.New("result cache unavailable")

	// ErrNoProducts is returned when a customer-facility pair has no catalog
	// relationships at all.
	ErrNoProducts = errors.New("no products found for customer facility")
)

// InvalidDateError is a fatal input error for an unparsable order date.
type InvalidDateError struct {
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid order date %q", e.Value)
}

// ForecastParseError marks a malformed forecaster response. Non-fatal; the
// caller falls back to history-only scoring.
type ForecastParseError struct {
	Reason string
}

func (e *ForecastParseError) Error() string {
	return "forecast parse failed: " + e.Reason
}

// InsightParseError marks an LLM response that did not contain the expected
// JSON payload. Non-fatal; rationale is synthesized from templates instead.
type InsightParseError struct {
	Reason string
}

func (e *InsightParseError) Error() string {
	return "insight parse failed: " + e.Reason
}
