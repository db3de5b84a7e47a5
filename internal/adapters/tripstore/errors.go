package tripstore

import "errors"

// Sentinel kinds for trip log errors.
var (
	ErrEmptyVehicleID = errors.New("empty vehicle id")
	ErrMissingTripID  = errors.New("missing trip id")
)
