package opac

import (
	"context"
	"errors"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/libgate/model"
)

// stubLoginer mints sessions without a network round trip
type stubLoginer struct {
	calls    atomic.Int32
	password string
	err      error
}

func (l *stubLoginer) Login(_ context.Context, creds model.Credentials) (*Session, error) {
	l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	if creds.Password != l.password {
		return nil, &AuthError{Reason: ReasonInvalidCredentials}
	}
	jar, _ := cookiejar.New(nil)
	origin, _ := url.Parse("http://opac.example.edu/reader/")
	return newSession(creds.StudentID, jar, origin, creds.Password)
}

func newTestSupervisor(l *stubLoginer) (*Supervisor, *MemoryStore) {
	store := NewMemoryStore()
	return NewSupervisor(store, l, zerolog.Nop()), store
}

func TestWithSession_NoRetryWhenValid(t *testing.T) {
	l := &stubLoginer{password: "secret"}
	sv, store := newTestSupervisor(l)

	var ops int
	err := sv.WithSession(context.Background(), student, func(ctx context.Context, s *Session) error {
		ops++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ops)
	assert.EqualValues(t, 1, l.calls.Load())
	assert.Equal(t, 1, store.Len())
}

func TestWithSession_RetriesExactlyOnce(t *testing.T) {
	l := &stubLoginer{password: "secret"}
	sv, store := newTestSupervisor(l)
	ctx := context.Background()

	first, err := sv.Authenticate(ctx, student)
	require.NoError(t, err)

	var seen []*Session
	err = sv.WithSession(ctx, student, func(ctx context.Context, s *Session) error {
		seen = append(seen, s)
		if s == first {
			return ErrSessionExpired
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.NotSame(t, first, seen[1])
	assert.EqualValues(t, 2, l.calls.Load())

	stored, ok := store.Get(student.StudentID)
	require.True(t, ok)
	assert.Same(t, seen[1], stored)
}

func TestWithSession_NeverLoops(t *testing.T) {
	l := &stubLoginer{password: "secret"}
	sv, _ := newTestSupervisor(l)
	ctx := context.Background()

	_, err := sv.Authenticate(ctx, student)
	require.NoError(t, err)

	var ops int
	err = sv.WithSession(ctx, student, func(ctx context.Context, s *Session) error {
		ops++
		return ErrSessionExpired
	})
	assert.True(t, IsAuthError(err, ReasonReauthFailed))
	assert.Equal(t, 2, ops)
	assert.EqualValues(t, 2, l.calls.Load())
}

func TestWithSession_OperationErrorPassesThrough(t *testing.T) {
	l := &stubLoginer{password: "secret"}
	sv, _ := newTestSupervisor(l)
	boom := errors.New("boom")

	err := sv.WithSession(context.Background(), student, func(ctx context.Context, s *Session) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1, l.calls.Load())
}

func TestWithSession_UnreachableDuringReauth(t *testing.T) {
	l := &stubLoginer{password: "secret"}
	sv, store := newTestSupervisor(l)
	ctx := context.Background()

	_, err := sv.Authenticate(ctx, student)
	require.NoError(t, err)

	l.err = &AuthError{Reason: ReasonUnreachable, Err: &ExternalSystemError{Kind: KindTimeout, Op: "login"}}
	err = sv.WithSession(ctx, student, func(ctx context.Context, s *Session) error {
		return ErrSessionExpired
	})
	assert.True(t, IsAuthError(err, ReasonUnreachable), "got %v", err)
	assert.True(t, IsExternal(err, KindTimeout))
	assert.Equal(t, 1, store.Len(), "an outage does not evict the session")
}

func TestWithSession_WaiterReusesReplacement(t *testing.T) {
	l := &stubLoginer{password: "secret"}
	sv, store := newTestSupervisor(l)
	ctx := context.Background()

	stale, err := sv.Authenticate(ctx, student)
	require.NoError(t, err)

	// another caller already replaced the stale session
	replacement, err := sv.login.Login(ctx, student)
	require.NoError(t, err)
	store.Put(student.StudentID, replacement)

	got, fresh, err := sv.acquire(ctx, student, stale)
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Same(t, replacement, got)
	assert.EqualValues(t, 2, l.calls.Load())
}

func TestWithSession_ConcurrentStudentsDoNotBlock(t *testing.T) {
	l := &stubLoginer{password: "secret"}
	sv, store := newTestSupervisor(l)

	ids := []model.StudentID{"a", "b", "c", "d"}
	var wg sync.WaitGroup
	for _, id := range ids {
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				creds := model.Credentials{StudentID: id, Password: "secret"}
				assert.NoError(t, sv.WithSession(context.Background(), creds, func(context.Context, *Session) error {
					return nil
				}))
			}()
		}
	}
	wg.Wait()

	assert.EqualValues(t, len(ids), l.calls.Load())
	assert.Equal(t, len(ids), store.Len())
	assert.Zero(t, sv.locks.size(), "lock entries are released")
}

func TestSessionMatches(t *testing.T) {
	l := &stubLoginer{password: "secret"}
	s, err := l.Login(context.Background(), student)
	require.NoError(t, err)

	assert.True(t, s.Matches("secret"))
	assert.False(t, s.Matches("Secret"))
	assert.False(t, s.Matches(""))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	l := &stubLoginer{password: "secret"}
	a, _ := l.Login(context.Background(), student)
	b, _ := l.Login(context.Background(), student)

	_, ok := store.Get(student.StudentID)
	assert.False(t, ok)

	store.Put(student.StudentID, a)
	store.Put(student.StudentID, b)
	got, ok := store.Get(student.StudentID)
	require.True(t, ok)
	assert.Same(t, b, got, "last write wins")
	assert.Equal(t, 1, store.Len())

	store.Invalidate(student.StudentID)
	assert.Equal(t, 0, store.Len())
	store.Invalidate(student.StudentID)
}
