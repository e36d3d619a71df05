package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrFeatureDisabled    = fmt.Errorf("artist watch feature is disabled")

	// Watch state errors
	ErrNotFound         = fmt.Errorf("not found")
	ErrArtistNotWatched = fmt.Errorf("%w: artist is not watched", ErrNotFound)
	ErrAlreadyExists    = fmt.Errorf("already exists")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrMetadataFetch      = fmt.Errorf("failed to fetch metadata")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrQueueFull          = fmt.Errorf("check queue is full")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrValidation      = fmt.Errorf("validation failed")
	ErrMissingArgument = fmt.Errorf("%w: missing required argument", ErrValidation)
	ErrInvalidArgument = fmt.Errorf("%w: invalid argument", ErrValidation)
	ErrInvalidFlag     = fmt.Errorf("%w: invalid flag value", ErrValidation)
)
