package opac

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"

	"github.com/s0up4200/libgate/markup"
)

const maxBodyBytes = 4 << 20

// transport issues browser-like requests to the OPAC and turns responses
// into markup pages
type transport struct {
	base      *url.URL
	client    *http.Client
	userAgent string
	maxBody   int64
	logger    zerolog.Logger
}

func newTransport(baseURL string, o options, logger zerolog.Logger) (*transport, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("opac base URL is required")
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid opac base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid opac base URL: unsupported scheme %q", base.Scheme)
	}

	client := &http.Client{}
	if o.httpClient != nil {
		c := *o.httpClient
		client = &c
	}
	client.Timeout = o.timeout
	client.Jar = nil

	return &transport{
		base:      base,
		client:    client,
		userAgent: o.userAgent,
		maxBody:   maxBodyBytes,
		logger:    logger,
	}, nil
}

// endpoint resolves path against the base URL and attaches query
func (t *transport) endpoint(path string, query url.Values) *url.URL {
	u := t.base.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u
}

// get fetches target using the cookies in jar
func (t *transport) get(ctx context.Context, jar http.CookieJar, op string, target *url.URL) (markup.Page, error) {
	return t.do(ctx, jar, op, http.MethodGet, target, nil)
}

// post submits form to target using the cookies in jar
func (t *transport) post(ctx context.Context, jar http.CookieJar, op string, target *url.URL, form url.Values) (markup.Page, error) {
	return t.do(ctx, jar, op, http.MethodPost, target, form)
}

func (t *transport) do(ctx context.Context, jar http.CookieJar, op, method string, target *url.URL, form url.Values) (page markup.Page, err error) {
	start := time.Now()
	defer func() { observeRequest(op, start, err) }()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return markup.Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.6")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Referer", target.String())
	}

	client := *t.client
	client.Jar = jar

	resp, err := client.Do(req)
	if err != nil {
		return markup.Page{}, classify(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return markup.Page{}, &ExternalSystemError{
			Kind: KindUnreachable,
			Op:   op,
			Err:  fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody+1))
	if err != nil {
		return markup.Page{}, classify(op, err)
	}
	if int64(len(raw)) > t.maxBody {
		return markup.Page{}, &ExternalSystemError{
			Kind: KindParseFailure,
			Op:   op,
			Err:  fmt.Errorf("response body exceeds %d bytes", t.maxBody),
		}
	}

	reader, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return markup.Page{}, &ExternalSystemError{Kind: KindParseFailure, Op: op, Err: err}
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return markup.Page{}, &ExternalSystemError{Kind: KindParseFailure, Op: op, Err: err}
	}

	t.logger.Debug().
		Str("op", op).
		Str("method", method).
		Str("url", resp.Request.URL.Redacted()).
		Int("status", resp.StatusCode).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("OPAC request")

	return markup.Page{URL: resp.Request.URL, Status: resp.StatusCode, Body: data}, nil
}

// classify maps a transport error onto the upstream error taxonomy.
// Caller cancellation is passed through untouched.
func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ExternalSystemError{Kind: KindTimeout, Op: op, Err: err}
	}
	return &ExternalSystemError{Kind: KindUnreachable, Op: op, Err: err}
}

// parseFailure wraps a scraper error as a parse failure
func parseFailure(op string, err error) error {
	return &ExternalSystemError{Kind: KindParseFailure, Op: op, Err: err}
}
