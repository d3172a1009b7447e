// Package markup holds every rule libgate uses to read the library's OPAC.
//
// The OPAC is a session-cookie web application written for browsers. It has no
// machine-readable status codes, so outcomes such as "login failed" or
// "session expired" are inferred from marker strings in the returned HTML.
// All of those markers and every CSS selector live in this package, which makes
// an upstream markup change a one-package fix.
//
// # Signals
//
//   - LoginSucceeded / LoginRejected: outcome of the credential POST
//   - IsSessionExpiredResponse: the "please log in" answer given to stale sessions
//   - RenewOutcome: success marker or the rejection text shown to the reader
//
// # Parsing policy
//
// Result rows are parsed independently. A malformed row is skipped. A page that
// yields zero rows without carrying a known "no results" marker is reported as
// ErrParseFailure, since that usually means the layout changed underneath us.
package markup
