package resolver

import "errors"

var (
	// ErrExternalUnavailable marks a degraded answer: the reasoning service
	// timed out, failed or replied with something unusable.
	ErrExternalUnavailable = errors.New("external reasoning unavailable")
	// ErrNoIntentMatch is the cause of answers whose question matched no
	// known analysis.
	ErrNoIntentMatch = errors.New("no intent match")
)
