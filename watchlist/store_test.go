package watchlist

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/libgate/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "watch.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func entry(student model.StudentID, bookID string) model.WatchEntry {
	return model.WatchEntry{
		StudentID: student,
		Barcode:   "TP311.13/S582",
		Title:     "Database System Concepts",
		BookID:    bookID,
		Author:    "Silberschatz",
	}
}

func TestAddAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.Add(ctx, entry("alice", "0000012345"))
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	_, err = s.Add(ctx, entry("alice", "0000012346"))
	require.NoError(t, err)
	_, err = s.Add(ctx, entry("bob", "0000012345"))
	require.NoError(t, err)

	got, err := s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "0000012345", got[0].BookID)
	assert.Equal(t, "0000012346", got[1].BookID)
	assert.Equal(t, model.StudentID("alice"), got[0].StudentID)
	assert.True(t, a.CreatedAt.Equal(got[0].CreatedAt))
}

func TestAdd_Duplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, entry("alice", "0000012345"))
	require.NoError(t, err)

	_, err = s.Add(ctx, entry("alice", "0000012345"))
	assert.ErrorIs(t, err, ErrDuplicate)

	// a different author makes it a different tuple
	other := entry("alice", "0000012345")
	other.Author = "Korth"
	_, err = s.Add(ctx, other)
	assert.NoError(t, err)
}

func TestAdd_Invalid(t *testing.T) {
	s := openTestStore(t)

	e := entry("alice", "0000012345")
	e.Title = "  "
	_, err := s.Add(context.Background(), e)
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

func TestList_Empty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRemove(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, entry("alice", "0000012345"))
	require.NoError(t, err)
	_, err = s.Add(ctx, entry("bob", "0000012345"))
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, "alice", "0000012345"))
	assert.ErrorIs(t, s.Remove(ctx, "alice", "0000012345"), ErrNotFound)

	bob, err := s.List(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bob, 1, "other students are untouched")
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.db")
	ctx := context.Background()

	s, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	_, err = s.Add(ctx, entry("alice", "0000012345"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Add(context.Background(), entry("alice", "1"))
	require.NoError(t, err)
	got, err := s.List(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDecorate(t *testing.T) {
	entries := []model.WatchEntry{
		entry("alice", "on-shelf"),
		entry("alice", "checked-out"),
		entry("alice", "broken"),
		entry("alice", "on-shelf"),
	}

	var calls atomic.Int32
	lookup := func(_ context.Context, bookID string) (bool, error) {
		calls.Add(1)
		switch bookID {
		case "on-shelf":
			return true, nil
		case "broken":
			return false, errors.New("upstream down")
		default:
			return false, nil
		}
	}

	views, err := Decorate(context.Background(), entries, lookup, 2, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, views, 4)

	assert.Equal(t, "y", views[0].Avbl())
	assert.Equal(t, "n", views[1].Avbl())
	assert.Equal(t, "n", views[2].Avbl(), "failed lookup reads as unavailable")
	assert.Equal(t, "y", views[3].Avbl())
	assert.EqualValues(t, 3, calls.Load(), "each book is looked up once")
}

func TestDecorate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Decorate(ctx, []model.WatchEntry{entry("alice", "1")}, func(ctx context.Context, _ string) (bool, error) {
		return false, ctx.Err()
	}, 0, zerolog.Nop())
	assert.ErrorIs(t, err, context.Canceled)
}
