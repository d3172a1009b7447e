package model

import (
	"errors"
	"strings"
	"time"
)

// StudentID uniquely identifies a student. It keys both sessions and watch entries.
type StudentID string

// ErrMissingCredentials is returned when a student id or password is empty.
var ErrMissingCredentials = errors.New("student id and password are required")

// Credentials are the student's OPAC login details
type Credentials struct {
	StudentID StudentID
	Password  string
}

// Validate checks that both fields are present
func (c Credentials) Validate() error {
	if strings.TrimSpace(string(c.StudentID)) == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Status is the availability of one physical holding
type Status string

const (
	StatusAvailable  Status = "available"
	StatusCheckedOut Status = "checked-out"
	StatusUnknown    Status = "unknown"
)

// Available reports whether the holding can be borrowed right now
func (s Status) Available() bool {
	return s == StatusAvailable
}

// BookRecord is one catalog entry as scraped from the OPAC.
// Records are built fresh per query and never mutated afterwards.
type BookRecord struct {
	ID         string `json:"id"`
	Title      string `json:"book"`
	Author     string `json:"author"`
	Barcode    string `json:"bid"`
	CallNumber string `json:"call_no,omitempty"`
	Location   string `json:"place,omitempty"`
	Status     Status `json:"status"`
}

// BookDetail lists every holding registered under one catalog id
type BookDetail struct {
	Books []BookRecord `json:"books"`
}

// Available reports whether at least one holding can be borrowed
func (d BookDetail) Available() bool {
	for _, b := range d.Books {
		if b.Status.Available() {
			return true
		}
	}
	return false
}

// LoanRecord is a book currently checked out by a student
type LoanRecord struct {
	Barcode    string    `json:"bar_code"`
	BookID     string    `json:"id,omitempty"`
	Title      string    `json:"book"`
	Author     string    `json:"author"`
	Check      string    `json:"check"`
	BorrowedAt time.Time `json:"borrowed_at"`
	DueAt      time.Time `json:"due_at"`
	Renewals   int       `json:"renewals"`
	Location   string    `json:"place,omitempty"`
}

// RenewOutcome is the business result of a renewal attempt.
// A rejection is an expected outcome, not an error.
type RenewOutcome struct {
	Renewed bool   `json:"renewed"`
	Reason  string `json:"reason,omitempty"`
}

// Renewed returns a successful renewal outcome
func Renewed() RenewOutcome {
	return RenewOutcome{Renewed: true}
}

// Rejected returns a refused renewal with the upstream's explanation
func Rejected(reason string) RenewOutcome {
	if reason == "" {
		reason = "renewal rejected"
	}
	return RenewOutcome{Reason: reason}
}
