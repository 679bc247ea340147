package events

import "errors"

// ErrUnknownBranch is returned when an expression refers to a name that is
// not a branch of the tree.
var ErrUnknownBranch = errors.New("events: unknown branch")
