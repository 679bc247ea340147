package rootio

import "errors"

// ErrNotFound is returned when a file holds no object under a name.
var ErrNotFound = errors.New("rootio: object not found")
