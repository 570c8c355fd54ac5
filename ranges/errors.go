package ranges

import "errors"

// Common errors returned by the anchor resolver.
var (
	// ErrAnchorNotFound indicates a range endpoint resolved to no
	// episode. A normal outcome at this boundary, not a crash.
	ErrAnchorNotFound = errors.New("anchor not found")

	// ErrUnsupportedSpec indicates a recognized but unimplemented
	// endpoint form, such as a calendar date.
	ErrUnsupportedSpec = errors.New("unsupported range specifier")

	// ErrConflictingSpec indicates mutually exclusive endpoint inputs,
	// such as a free-text query combined with an explicit season.
	ErrConflictingSpec = errors.New("conflicting range specifier inputs")
)
