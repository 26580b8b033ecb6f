package domain

import "errors"

var (
	// ErrNoPriceSources is returned when the price cascade is loaded with an
	// empty source list
	ErrNoPriceSources = errors.New("price cascade requires at least one source")

	// ErrTrustOrder is returned when price sources are not ordered by
	// non-increasing trust weight
	ErrTrustOrder = errors.New("price sources must be ordered by descending trust weight")

	// ErrTrustWeightRange is returned when a trust weight falls outside [0,1]
	ErrTrustWeightRange = errors.New("trust weight must be between 0 and 1")

	// ErrMalformedPrice is returned when a raw price value cannot be parsed
	ErrMalformedPrice = errors.New("malformed price value")

	// ErrImplausiblePrice is returned when a parsed price falls below the
	// plausibility floor and is rejected as a units error
	ErrImplausiblePrice = errors.New("price below plausibility floor")

	// ErrUnreadableAsset is returned when an image file cannot be decoded
	ErrUnreadableAsset = errors.New("unreadable image asset")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrSnapshotMiss is returned when no catalog snapshot exists for a source
	ErrSnapshotMiss = errors.New("catalog snapshot not found")
)
