package download

import "errors"

var (
	// ErrNoSource indicates no download URL exists for the requested quality.
	ErrNoSource = errors.New("no source URL available")
)
