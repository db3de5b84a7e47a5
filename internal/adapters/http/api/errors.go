package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrMissingVehicle = errors.New("missing vehicle id")
	ErrEmptyBody      = errors.New("empty request body")
)
