package domain

import "errors"

var (
	// ErrInvalidCoordinates marks a release request with out-of-range
	// latitude or longitude. Rejected before any calculation begins.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrInvalidRelease marks a release request missing required fields.
	ErrInvalidRelease = errors.New("invalid release event")

	// ErrInsufficientSourceData means neither a release rate nor a total
	// mass with duration was supplied for a direct release.
	ErrInsufficientSourceData = errors.New("insufficient data to calculate emission rate")

	// ErrInvalidWindSpeed means the wind speed is at or below the physical
	// modeling floor. The Gaussian formulations are not valid in calm air,
	// so the cycle is aborted for the release rather than silently clamped.
	ErrInvalidWindSpeed = errors.New("wind speed below modeling floor")

	// ErrReleaseNotFound means the referenced release is not in the
	// orchestrator's active set.
	ErrReleaseNotFound = errors.New("release event not found")
)
