package fakerate

import "errors"

// ErrMissingGraph is returned when a fake-rate graph is absent or empty.
var ErrMissingGraph = errors.New("fakerate: missing graph")
