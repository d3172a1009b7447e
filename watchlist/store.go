package watchlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/s0up4200/libgate/model"
)

// Common errors
var (
	// ErrDuplicate indicates the student already watches this exact book
	ErrDuplicate = errors.New("watch entry already exists")
	// ErrNotFound indicates no matching watch entry
	ErrNotFound = errors.New("watch entry not found")
	// ErrInvalidEntry indicates a required field is empty
	ErrInvalidEntry = errors.New("invalid watch entry")
)

const table = "watch_entries"

// Store persists per-student watch entries
type Store interface {
	Add(ctx context.Context, e model.WatchEntry) (model.WatchEntry, error)
	List(ctx context.Context, student model.StudentID) ([]model.WatchEntry, error)
	Remove(ctx context.Context, student model.StudentID, bookID string) error
	Close() error
}

// SQLiteStore is a Store backed by a single SQLite file
type SQLiteStore struct {
	db     *sql.DB
	qb     sq.StatementBuilderType
	logger zerolog.Logger
}

// Open opens (creating if needed) the database at path and migrates it.
// ":memory:" gives a throwaway store.
func Open(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:     db,
		qb:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger: logger,
	}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Add stores e for its student. Adding the same tuple twice is ErrDuplicate.
func (s *SQLiteStore) Add(ctx context.Context, e model.WatchEntry) (model.WatchEntry, error) {
	e.Barcode = strings.TrimSpace(e.Barcode)
	e.Title = strings.TrimSpace(e.Title)
	e.BookID = strings.TrimSpace(e.BookID)
	e.Author = strings.TrimSpace(e.Author)
	if e.StudentID == "" || e.Barcode == "" || e.Title == "" || e.BookID == "" {
		return model.WatchEntry{}, fmt.Errorf("%w: student, bid, book and id are required", ErrInvalidEntry)
	}
	e.CreatedAt = time.Now().UTC()

	query, args, err := s.qb.Insert(table).
		Columns("student_id", "barcode", "title", "book_id", "author", "created_at").
		Values(string(e.StudentID), e.Barcode, e.Title, e.BookID, e.Author, e.CreatedAt.Format(time.RFC3339Nano)).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return model.WatchEntry{}, fmt.Errorf("build insert: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return model.WatchEntry{}, fmt.Errorf("insert watch entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.WatchEntry{}, fmt.Errorf("insert watch entry: %w", err)
	}
	if n == 0 {
		return model.WatchEntry{}, ErrDuplicate
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return model.WatchEntry{}, fmt.Errorf("insert watch entry: %w", err)
	}

	s.logger.Debug().
		Str("student", string(e.StudentID)).
		Str("book_id", e.BookID).
		Msg("Added watch entry")

	return e, nil
}

// List returns the student's entries, oldest first
func (s *SQLiteStore) List(ctx context.Context, student model.StudentID) ([]model.WatchEntry, error) {
	query, args, err := s.qb.
		Select("id", "student_id", "barcode", "title", "book_id", "author", "created_at").
		From(table).
		Where(sq.Eq{"student_id": string(student)}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list watch entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.WatchEntry, 0)
	for rows.Next() {
		var (
			e       model.WatchEntry
			sid     string
			created string
		)
		if err := rows.Scan(&e.ID, &sid, &e.Barcode, &e.Title, &e.BookID, &e.Author, &created); err != nil {
			return nil, fmt.Errorf("scan watch entry: %w", err)
		}
		e.StudentID = model.StudentID(sid)
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			s.logger.Warn().Err(err).Int64("id", e.ID).Msg("Unreadable watch entry timestamp")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list watch entries: %w", err)
	}

	return entries, nil
}

// Remove deletes every entry the student holds for bookID
func (s *SQLiteStore) Remove(ctx context.Context, student model.StudentID, bookID string) error {
	query, args, err := s.qb.Delete(table).
		Where(sq.Eq{"student_id": string(student), "book_id": strings.TrimSpace(bookID)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete watch entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete watch entry: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
