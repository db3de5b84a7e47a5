package repository

import "errors"

// Sentinel kinds for baseline store errors.
var (
	ErrNotFound       = errors.New("baseline not found")
	ErrEmptyVehicleID = errors.New("empty vehicle id")
)
