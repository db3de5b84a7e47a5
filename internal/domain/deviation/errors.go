package deviation

import "errors"

// Sentinel kinds for deviation classification.
var (
	// ErrNoBaseline means the vehicle has no usable baseline yet. This is
	// an expected, common state: callers should skip the check, not fail
	// the request.
	ErrNoBaseline = errors.New("no baseline for vehicle")
)
