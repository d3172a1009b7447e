package opac

import (
	"net/http"
	"time"

	"github.com/s0up4200/libgate/markup"
)

const (
	defaultTimeout        = 15 * time.Second
	defaultUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	defaultMaxSearchPages = 5
)

// Endpoints are the OPAC paths, resolved against the base URL
type Endpoints struct {
	Login  string `mapstructure:"login"`
	Search string `mapstructure:"search"`
	Item   string `mapstructure:"item"`
	Loans  string `mapstructure:"loans"`
	Renew  string `mapstructure:"renew"`
}

// DefaultEndpoints returns the paths of a stock Huiwen OPAC install
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:  "reader/login.php",
		Search: "opac/openlink.php",
		Item:   "opac/item.php",
		Loans:  "reader/book_lst.php",
		Renew:  "reader/ajax_renew.php",
	}
}

func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	if e.Login == "" {
		e.Login = d.Login
	}
	if e.Search == "" {
		e.Search = d.Search
	}
	if e.Item == "" {
		e.Item = d.Item
	}
	if e.Loans == "" {
		e.Loans = d.Loans
	}
	if e.Renew == "" {
		e.Renew = d.Renew
	}
	return e
}

// Option configures a Service.
type Option func(*options)

type options struct {
	timeout        time.Duration
	userAgent      string
	maxSearchPages int
	markers        markup.Markers
	endpoints      Endpoints
	store          SessionStore
	httpClient     *http.Client
}

func defaultOptions() options {
	return options{
		timeout:        defaultTimeout,
		userAgent:      defaultUserAgent,
		maxSearchPages: defaultMaxSearchPages,
		endpoints:      DefaultEndpoints(),
	}
}

// WithTimeout bounds every request made to the OPAC.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithUserAgent sets the browser user agent presented to the OPAC.
func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		if userAgent != "" {
			o.userAgent = userAgent
		}
	}
}

// WithMaxSearchPages caps how many result pages one search walks.
func WithMaxSearchPages(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSearchPages = n
		}
	}
}

// WithMarkers overrides the content markers used to sniff outcomes.
func WithMarkers(m markup.Markers) Option {
	return func(o *options) {
		o.markers = m
	}
}

// WithEndpoints overrides the OPAC paths.
func WithEndpoints(e Endpoints) Option {
	return func(o *options) {
		o.endpoints = e.withDefaults()
	}
}

// WithSessionStore replaces the in-memory session store.
func WithSessionStore(s SessionStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithHTTPClient sets the base HTTP client. Its Jar is ignored; every
// session brings its own.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}
