package opac

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/s0up4200/libgate/markup"
	"github.com/s0up4200/libgate/model"
)

// Service is the facade the API and CLI talk to
type Service struct {
	catalog    *Catalog
	actions    *Actions
	supervisor *Supervisor
	store      SessionStore
	logger     zerolog.Logger
}

// New creates a Service for the OPAC at baseURL
func New(baseURL string, logger zerolog.Logger, opts ...Option) (*Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	t, err := newTransport(baseURL, o, logger)
	if err != nil {
		return nil, err
	}

	scraper := markup.NewScraper(o.markers)
	store := o.store
	if store == nil {
		store = NewMemoryStore()
	}

	auth := &Authenticator{t: t, scraper: scraper, endpoints: o.endpoints, logger: logger}

	return &Service{
		catalog: &Catalog{
			t:         t,
			scraper:   scraper,
			endpoints: o.endpoints,
			maxPages:  o.maxSearchPages,
			logger:    logger,
		},
		actions:    &Actions{t: t, scraper: scraper, endpoints: o.endpoints, logger: logger},
		supervisor: NewSupervisor(store, auth, logger),
		store:      store,
		logger:     logger,
	}, nil
}

// Authenticate logs the student in and stores the new session
func (s *Service) Authenticate(ctx context.Context, creds model.Credentials) error {
	_, err := s.supervisor.Authenticate(ctx, creds)
	return err
}

// Verify checks creds, reusing a stored session created with them
func (s *Service) Verify(ctx context.Context, creds model.Credentials) error {
	_, err := s.supervisor.Ensure(ctx, creds)
	return err
}

// Search looks keyword up in the catalog
func (s *Service) Search(ctx context.Context, keyword string) ([]model.BookRecord, error) {
	return s.catalog.Search(ctx, keyword)
}

// GetBook returns the holdings of one catalog entry
func (s *Service) GetBook(ctx context.Context, bookID string) (model.BookDetail, error) {
	return s.catalog.GetBook(ctx, bookID)
}

// Availability reports whether any holding of bookID is on the shelf
func (s *Service) Availability(ctx context.Context, bookID string) (bool, error) {
	return s.catalog.Availability(ctx, bookID)
}

// ListLoans returns the student's current loans
func (s *Service) ListLoans(ctx context.Context, creds model.Credentials) ([]model.LoanRecord, error) {
	var loans []model.LoanRecord
	err := s.supervisor.WithSession(ctx, creds, func(ctx context.Context, sess *Session) error {
		var err error
		loans, err = s.actions.ListLoans(ctx, sess)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loans, nil
}

// Renew extends one loan
func (s *Service) Renew(ctx context.Context, creds model.Credentials, barcode, check string) (model.RenewOutcome, error) {
	var out model.RenewOutcome
	err := s.supervisor.WithSession(ctx, creds, func(ctx context.Context, sess *Session) error {
		var err error
		out, err = s.actions.Renew(ctx, sess, barcode, check)
		return err
	})
	if err != nil {
		return model.RenewOutcome{}, err
	}
	return out, nil
}

// Sessions reports how many student sessions are held
func (s *Service) Sessions() int {
	return s.store.Len()
}
