package opac

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/libgate/markup"
	"github.com/s0up4200/libgate/model"
)

// Actions performs requests that need an authenticated session. Both
// methods return ErrSessionExpired when the OPAC asks for a login.
type Actions struct {
	t         *transport
	scraper   *markup.Scraper
	endpoints Endpoints
	logger    zerolog.Logger
}

// ListLoans returns the books the session's student currently holds
func (a *Actions) ListLoans(ctx context.Context, s *Session) ([]model.LoanRecord, error) {
	p, err := a.t.get(ctx, s.jar, "loans", a.t.endpoint(a.endpoints.Loans, nil))
	if err != nil {
		return nil, err
	}
	if a.scraper.IsSessionExpiredResponse(p) {
		return nil, ErrSessionExpired
	}

	loans, err := a.scraper.ParseLoans(p)
	if err != nil {
		return nil, parseFailure("loans", err)
	}

	a.logger.Debug().
		Str("student", string(s.StudentID)).
		Int("count", len(loans)).
		Msg("Retrieved loans from OPAC")

	return loans, nil
}

// Renew asks the OPAC to extend a loan. A refusal is a Rejected outcome,
// not an error.
func (a *Actions) Renew(ctx context.Context, s *Session, barcode, check string) (model.RenewOutcome, error) {
	barcode = strings.TrimSpace(barcode)
	check = strings.TrimSpace(check)
	if barcode == "" || check == "" {
		return model.Rejected("barcode and check token are required"), nil
	}

	params := url.Values{}
	params.Set("bar_code", barcode)
	params.Set("check", check)
	params.Set("time", strconv.FormatInt(time.Now().UnixMilli(), 10))

	p, err := a.t.get(ctx, s.jar, "renew", a.t.endpoint(a.endpoints.Renew, params))
	if err != nil {
		return model.RenewOutcome{}, err
	}
	if a.scraper.IsSessionExpiredResponse(p) {
		return model.RenewOutcome{}, ErrSessionExpired
	}

	out := a.scraper.RenewOutcome(p)
	a.logger.Info().
		Str("student", string(s.StudentID)).
		Str("barcode", barcode).
		Bool("renewed", out.Renewed).
		Str("reason", out.Reason).
		Msg("Renewal attempted")

	return out, nil
}
