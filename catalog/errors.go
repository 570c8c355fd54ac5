package catalog

import "errors"

// ErrNotFound indicates a show, episode, or season lookup matched
// nothing. A normal outcome, not a crash.
var ErrNotFound = errors.New("not found")
