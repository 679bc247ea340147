package config

import "errors"

var (
	// ErrNoSamples is returned when a command needs simulated samples and
	// the configuration declares none.
	ErrNoSamples = errors.New("config: no samples")

	// ErrUnknownSet is returned for a variable group, variable or sample
	// name the configuration does not define.
	ErrUnknownSet = errors.New("config: unknown name")

	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("config: invalid")
)
