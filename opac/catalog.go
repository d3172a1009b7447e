package opac

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"github.com/s0up4200/libgate/markup"
	"github.com/s0up4200/libgate/model"
)

const searchPageSize = 20

// Catalog performs anonymous catalog lookups
type Catalog struct {
	t         *transport
	scraper   *markup.Scraper
	endpoints Endpoints
	maxPages  int
	logger    zerolog.Logger
}

// Search returns every hit for keyword in OPAC order, walking result pages
// up to the configured cap. No hits is an empty slice, not an error.
func (c *Catalog) Search(ctx context.Context, keyword string) ([]model.BookRecord, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: search keyword is required", ErrInvalidInput)
	}

	// the OPAC keeps paging state in its session cookie
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	books := make([]model.BookRecord, 0)
	totalPages := 1

	for page := 1; page <= totalPages && page <= c.maxPages; page++ {
		params := url.Values{}
		params.Set("strSearchType", "title")
		params.Set("strText", keyword)
		params.Set("showmode", "list")
		params.Set("displaypg", strconv.Itoa(searchPageSize))
		params.Set("page", strconv.Itoa(page))

		p, err := c.t.get(ctx, jar, "search", c.t.endpoint(c.endpoints.Search, params))
		if err != nil {
			return nil, err
		}

		result, err := c.scraper.ParseSearch(p)
		if err != nil {
			return nil, parseFailure("search", err)
		}

		books = append(books, result.Books...)
		totalPages = result.TotalPages

		c.logger.Debug().
			Str("keyword", keyword).
			Int("page", page).
			Int("pages", totalPages).
			Int("count", len(result.Books)).
			Msg("Retrieved search page from OPAC")

		if len(result.Books) == 0 {
			break
		}
	}

	if totalPages > c.maxPages {
		c.logger.Debug().
			Str("keyword", keyword).
			Int("pages", totalPages).
			Int("max_pages", c.maxPages).
			Msg("Search truncated at page cap")
	}

	return books, nil
}

// GetBook returns every physical holding registered under bookID
func (c *Catalog) GetBook(ctx context.Context, bookID string) (model.BookDetail, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return model.BookDetail{}, fmt.Errorf("%w: book id is required", ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("marc_no", bookID)

	p, err := c.t.get(ctx, nil, "item", c.t.endpoint(c.endpoints.Item, params))
	if err != nil {
		return model.BookDetail{}, err
	}

	books, err := c.scraper.ParseHoldings(p, bookID)
	if err != nil {
		return model.BookDetail{}, parseFailure("item", err)
	}

	return model.BookDetail{Books: books}, nil
}

// Availability reports whether any holding of bookID can be borrowed now
func (c *Catalog) Availability(ctx context.Context, bookID string) (bool, error) {
	detail, err := c.GetBook(ctx, bookID)
	if err != nil {
		return false, err
	}
	return detail.Available(), nil
}
