package markup

import (
	"strings"

	"github.com/s0up4200/libgate/model"
)

// Scraper applies the configured markers and selectors to OPAC pages.
// It holds no mutable state and is safe for concurrent use.
type Scraper struct {
	markers Markers
}

// NewScraper creates a Scraper. Empty marker lists fall back to DefaultMarkers.
func NewScraper(m Markers) *Scraper {
	return &Scraper{markers: m.withDefaults()}
}

// Markers returns the effective marker set
func (s *Scraper) Markers() Markers {
	return s.markers
}

// LoginSucceeded is the single predicate deciding whether a credential POST
// produced an authenticated session. A failure marker always wins.
func (s *Scraper) LoginSucceeded(p Page) bool {
	if s.LoginRejected(p) {
		return false
	}
	return p.Contains(s.markers.LoginSuccess) || p.urlContains(s.markers.LoginSuccess)
}

// LoginRejected reports whether the OPAC explicitly refused the credentials
func (s *Scraper) LoginRejected(p Page) bool {
	return p.Contains(s.markers.LoginFailure)
}

// IsSessionExpiredResponse reports whether the OPAC answered with its
// "please log in" page instead of the requested content.
func (s *Scraper) IsSessionExpiredResponse(p Page) bool {
	return p.Contains(s.markers.SessionExpired) || p.urlContains(s.markers.SessionExpiredURL)
}

// NoResults reports whether the page explicitly says there is nothing to list
func (s *Scraper) NoResults(p Page) bool {
	return p.Contains(s.markers.NoResults)
}

// StatusOf maps a holding's status text to a Status.
// Unrecognised wording maps to StatusUnknown.
func (s *Scraper) StatusOf(text string) model.Status {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.StatusUnknown
	}
	for _, m := range s.markers.CheckedOut {
		if m != "" && strings.Contains(text, m) {
			return model.StatusCheckedOut
		}
	}
	for _, m := range s.markers.Available {
		if m != "" && strings.Contains(text, m) {
			return model.StatusAvailable
		}
	}
	return model.StatusUnknown
}
