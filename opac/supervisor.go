package opac

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/s0up4200/libgate/model"
)

// Loginer produces a fresh authenticated session
type Loginer interface {
	Login(ctx context.Context, creds model.Credentials) (*Session, error)
}

// Operation is work performed with a session
type Operation func(ctx context.Context, s *Session) error

// Supervisor hands out valid sessions and re-authenticates on expiry.
// A stored session that expires is replaced at most once per call.
type Supervisor struct {
	store  SessionStore
	login  Loginer
	locks  *keyedMutex
	logger zerolog.Logger
}

// NewSupervisor creates a Supervisor around store and login
func NewSupervisor(store SessionStore, login Loginer, logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		store:  store,
		login:  login,
		locks:  newKeyedMutex(),
		logger: logger,
	}
}

// Authenticate always logs in and replaces the stored session on success.
// A failed login leaves any stored session in place.
func (sv *Supervisor) Authenticate(ctx context.Context, creds model.Credentials) (*Session, error) {
	unlock := sv.locks.Lock(creds.StudentID)
	defer unlock()

	sess, err := sv.login.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	sv.store.Put(creds.StudentID, sess)
	return sess, nil
}

// Ensure returns a usable session for creds, logging in only when none
// is stored or the stored one was created with a different password.
func (sv *Supervisor) Ensure(ctx context.Context, creds model.Credentials) (*Session, error) {
	sess, _, err := sv.acquire(ctx, creds, nil)
	return sess, err
}

// WithSession runs op with a valid session for creds. If op reports
// ErrSessionExpired on a stored session, the student is logged in again
// and op is retried exactly once. ErrSessionExpired never escapes.
func (sv *Supervisor) WithSession(ctx context.Context, creds model.Credentials, op Operation) error {
	if err := creds.Validate(); err != nil {
		return &AuthError{Reason: ReasonInvalidCredentials, Err: err}
	}

	sess, fresh, err := sv.acquire(ctx, creds, nil)
	if err != nil {
		return err
	}

	err = op(ctx, sess)
	if !errors.Is(err, ErrSessionExpired) {
		return err
	}

	// a session minted for this call is already the retry
	if fresh {
		sv.logger.Warn().Str("student", string(creds.StudentID)).Msg("Fresh OPAC session rejected as expired")
		return &AuthError{Reason: ReasonReauthFailed, Err: err}
	}

	sessionExpirations.Inc()
	sv.logger.Debug().
		Str("student", string(creds.StudentID)).
		Time("created", sess.CreatedAt).
		Msg("OPAC session expired, re-authenticating")

	sess, _, err = sv.acquire(ctx, creds, sess)
	if err != nil {
		return err
	}

	err = op(ctx, sess)
	if errors.Is(err, ErrSessionExpired) {
		sv.logger.Warn().Str("student", string(creds.StudentID)).Msg("OPAC session expired again after re-authentication")
		return &AuthError{Reason: ReasonReauthFailed, Err: err}
	}
	return err
}

// acquire runs the check-and-login critical section for one student.
// stale is the session the caller just saw expire, if any; a different
// stored session means another caller already logged in and is reused.
func (sv *Supervisor) acquire(ctx context.Context, creds model.Credentials, stale *Session) (*Session, bool, error) {
	id := creds.StudentID
	unlock := sv.locks.Lock(id)
	defer unlock()

	if cur, ok := sv.store.Get(id); ok && cur != stale && cur.Matches(creds.Password) {
		return cur, false, nil
	}

	sess, err := sv.login.Login(ctx, creds)
	if err != nil {
		if stale != nil && IsAuthError(err, ReasonInvalidCredentials) {
			if cur, ok := sv.store.Get(id); ok && cur == stale {
				sv.store.Invalidate(id)
			}
			return nil, false, &AuthError{Reason: ReasonReauthFailed, Err: err}
		}
		return nil, false, err
	}

	sv.store.Put(id, sess)
	return sess, true, nil
}
