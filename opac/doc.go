// Package opac emulates a student's browser session against a legacy
// library OPAC.
//
// The OPAC has no API. Every request is a page fetch with session cookies,
// and every outcome (login accepted, session gone, renewal refused) is read
// from the returned markup by package markup. The Supervisor keeps one
// session per student, logs in lazily, and re-authenticates at most once
// when an operation finds its session expired.
//
// Basic usage:
//
//	svc, err := opac.New("http://opac.example.edu/", logger, opac.WithTimeout(10*time.Second))
//	if err != nil {
//		return err
//	}
//	loans, err := svc.ListLoans(ctx, model.Credentials{StudentID: "2016001", Password: pw})
//
// Failures are either *AuthError or *ExternalSystemError. Empty search
// results and refused renewals are ordinary results.
package opac
