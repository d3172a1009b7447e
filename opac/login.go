package opac

import (
	"context"
	"errors"
	"fmt"
	"net/http/cookiejar"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"github.com/s0up4200/libgate/markup"
	"github.com/s0up4200/libgate/model"
)

// Authenticator drives the OPAC login handshake. It never touches the
// session store.
type Authenticator struct {
	t         *transport
	scraper   *markup.Scraper
	endpoints Endpoints
	logger    zerolog.Logger
}

// Login opens the login page in a fresh cookie jar, echoes its form back
// with the credentials filled in, and sniffs the reply.
func (a *Authenticator) Login(ctx context.Context, creds model.Credentials) (sess *Session, err error) {
	defer func() { observeLogin(err) }()

	if err := creds.Validate(); err != nil {
		return nil, &AuthError{Reason: ReasonInvalidCredentials, Err: err}
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	page, err := a.t.get(ctx, jar, "login_page", a.t.endpoint(a.endpoints.Login, nil))
	if err != nil {
		return nil, authTransportError(err)
	}

	form, err := a.scraper.ParseLoginForm(page)
	if err != nil {
		return nil, &AuthError{Reason: ReasonUnexpectedResponse, Err: err}
	}

	page, err = a.t.post(ctx, jar, "login", form.Action, form.Values(creds))
	if err != nil {
		return nil, authTransportError(err)
	}

	if a.scraper.LoginRejected(page) {
		a.logger.Debug().Str("student", string(creds.StudentID)).Msg("OPAC rejected credentials")
		return nil, &AuthError{Reason: ReasonInvalidCredentials}
	}
	if !a.scraper.LoginSucceeded(page) {
		return nil, &AuthError{
			Reason: ReasonUnexpectedResponse,
			Err:    fmt.Errorf("no login marker in response from %s", page.URL.Redacted()),
		}
	}

	// the cookies that matter are the ones sent to the reader pages
	origin := a.t.endpoint(a.endpoints.Loans, nil)
	if len(jar.Cookies(origin)) == 0 {
		return nil, &AuthError{
			Reason: ReasonUnexpectedResponse,
			Err:    errors.New("login response carried no session cookies"),
		}
	}

	sess, err = newSession(creds.StudentID, jar, origin, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint credentials: %w", err)
	}

	a.logger.Debug().Str("student", string(creds.StudentID)).Msg("Logged in to OPAC")
	return sess, nil
}

// authTransportError folds upstream failures into the login taxonomy
func authTransportError(err error) error {
	if IsExternal(err, "") {
		return &AuthError{Reason: ReasonUnreachable, Err: err}
	}
	return err
}
