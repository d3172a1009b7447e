package markup

import "errors"

// Errors returned by the parsers.
var (
	// ErrParseFailure indicates a non-empty page produced no parsable rows.
	ErrParseFailure = errors.New("no rows could be parsed from upstream page")

	// ErrNoLoginForm indicates the login page did not contain a credential form.
	ErrNoLoginForm = errors.New("login form not found")
)
