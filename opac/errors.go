package opac

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is signalled by operations when the OPAC answered with
// its "please log in" page. The Supervisor consumes it; callers never see it.
var ErrSessionExpired = errors.New("opac session expired")

// ErrInvalidInput is returned for empty keywords or ids before any request is made
var ErrInvalidInput = errors.New("invalid input")

// AuthReason classifies an authentication failure
type AuthReason string

const (
	ReasonInvalidCredentials AuthReason = "invalid_credentials"
	ReasonUnreachable        AuthReason = "external_system_unreachable"
	ReasonUnexpectedResponse AuthReason = "unexpected_response"
	ReasonReauthFailed       AuthReason = "reauth_failed"
)

// AuthError is returned when a student could not be logged in
type AuthError struct {
	Reason AuthReason
	Err    error
}

// Error implements the error interface
func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("opac authentication failed: %s", e.Reason)
	}
	return fmt.Sprintf("opac authentication failed: %s: %v", e.Reason, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies an upstream failure
type ErrorKind string

const (
	KindTimeout      ErrorKind = "timeout"
	KindUnreachable  ErrorKind = "unreachable"
	KindParseFailure ErrorKind = "parse_failure"
)

// ExternalSystemError is returned when the OPAC could not be reached or
// answered with content that could not be understood.
type ExternalSystemError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface
func (e *ExternalSystemError) Error() string {
	return fmt.Sprintf("opac %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ExternalSystemError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is an AuthError with the given reason.
// An empty reason matches any AuthError.
func IsAuthError(err error, reason AuthReason) bool {
	var ae *AuthError
	if !errors.As(err, &ae) {
		return false
	}
	return reason == "" || ae.Reason == reason
}

// IsExternal reports whether err is an ExternalSystemError of the given kind.
// An empty kind matches any ExternalSystemError.
func IsExternal(err error, kind ErrorKind) bool {
	var ee *ExternalSystemError
	if !errors.As(err, &ee) {
		return false
	}
	return kind == "" || ee.Kind == kind
}
