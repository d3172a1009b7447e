package watchlist

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/libgate/model"
)

// DefaultConcurrency bounds parallel availability lookups
const DefaultConcurrency = 4

// AvailabilityFunc reports whether any holding of a catalog entry is on the shelf
type AvailabilityFunc func(ctx context.Context, bookID string) (bool, error)

// Decorate attaches live availability to entries, looking each distinct book
// up once. A failed lookup marks its entries unavailable.
func Decorate(ctx context.Context, entries []model.WatchEntry, lookup AvailabilityFunc, limit int, logger zerolog.Logger) ([]model.WatchView, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var (
		mu    sync.Mutex
		avail = make(map[string]bool, len(entries))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.BookID]; ok {
			continue
		}
		seen[e.BookID] = struct{}{}

		g.Go(func() error {
			ok, err := lookup(gctx, e.BookID)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("book_id", e.BookID).
					Msg("Availability lookup failed")
				return nil
			}
			mu.Lock()
			avail[e.BookID] = ok
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	views := make([]model.WatchView, 0, len(entries))
	for _, e := range entries {
		views = append(views, model.WatchView{WatchEntry: e, Available: avail[e.BookID]})
	}
	return views, nil
}
