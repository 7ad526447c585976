package decl

import "errors"

// Load-time failures. Any of these aborts the whole library build; callers
// match them with errors.Is.
var (
	ErrMalformedBlock         = errors.New("malformed block")
	ErrMissingCloseParen      = errors.New("missing closing parenthesis")
	ErrUnknownDeclarationType = errors.New("unknown declaration type")
	ErrInvalidPattern         = errors.New("invalid pattern")
)
