package baseline

import "errors"

// Sentinel kinds for baseline estimation.
var (
	// ErrInsufficientSamples means fewer than the minimum eligible samples
	// survived outlier filtering. Expected and recoverable: the caller
	// should defer baseline creation for the vehicle, not alert.
	ErrInsufficientSamples = errors.New("insufficient samples for baseline")
)
