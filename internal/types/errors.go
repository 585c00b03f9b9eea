package types

import "errors"

var (
	// ErrNotFound covers missing families, POI ids and out-of-range indexes
	// surfaced to callers. The engine never fabricates default progress for
	// an unknown family.
	ErrNotFound = errors.New("requested item not found")

	// ErrValidation marks malformed input (bad coordinates, empty ids)
	// rejected before any state is mutated.
	ErrValidation = errors.New("validation failed")

	ErrUnauthenticated = errors.New("authentication failed")
)
