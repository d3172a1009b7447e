package markup

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a raw OPAC response after redirects were followed.
// Body is already transcoded to UTF-8.
type Page struct {
	URL    *url.URL
	Status int
	Body   []byte
}

// NewPage builds a Page for a body fetched from rawURL. Mostly used by tests.
// It panics if rawURL does not parse, since a Page without a URL cannot be
// recognised as a redirect to the login page.
func NewPage(rawURL string, body []byte) Page {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(fmt.Sprintf("markup: invalid page URL %q: %v", rawURL, err))
	}
	return Page{URL: u, Status: 200, Body: body}
}

// Contains reports whether the body contains any of the markers
func (p Page) Contains(markers []string) bool {
	for _, m := range markers {
		if m != "" && bytes.Contains(p.Body, []byte(m)) {
			return true
		}
	}
	return false
}

// urlContains reports whether the final URL contains any of the markers
func (p Page) urlContains(markers []string) bool {
	if p.URL == nil {
		return false
	}
	u := p.URL.String()
	for _, m := range markers {
		if m != "" && strings.Contains(u, m) {
			return true
		}
	}
	return false
}

// Empty reports whether the body carries no content at all
func (p Page) Empty() bool {
	return len(bytes.TrimSpace(p.Body)) == 0
}

func (p Page) document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return doc, nil
}

// resolve turns an href found on the page into an absolute URL
func (p Page) resolve(href string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, err
	}
	if p.URL == nil {
		return ref, nil
	}
	return p.URL.ResolveReference(ref), nil
}

// cleanText collapses whitespace the way a browser renders it
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
