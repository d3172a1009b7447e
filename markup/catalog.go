package markup

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/s0up4200/libgate/model"
)

var (
	marcNoPattern   = regexp.MustCompile(`marc_no=([0-9A-Za-z]+)`)
	pageNavPattern  = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)
	titleLabelMatch = "题名"
)

// SearchPage is one page of search hits
type SearchPage struct {
	Books      []model.BookRecord
	Total      int
	TotalPages int
}

// ParseSearch parses a result list page. Rows without a catalog link or a
// title are skipped.
func (s *Scraper) ParseSearch(p Page) (SearchPage, error) {
	doc, err := p.document()
	if err != nil {
		return SearchPage{}, err
	}

	result := SearchPage{
		Books:      make([]model.BookRecord, 0),
		TotalPages: 1,
	}

	doc.Find("li.book_list_info").Each(func(_ int, row *goquery.Selection) {
		if book, ok := s.parseSearchRow(row); ok {
			result.Books = append(result.Books, book)
		}
	})

	if len(result.Books) == 0 {
		if s.NoResults(p) {
			return result, nil
		}
		return SearchPage{}, ErrParseFailure
	}

	nav := doc.Find("#titlenav")
	if n, err := strconv.Atoi(strings.TrimSpace(nav.Find("strong").First().Text())); err == nil {
		result.Total = n
	}
	if m := pageNavPattern.FindAllStringSubmatch(cleanText(nav.Text()), -1); len(m) > 0 {
		if n, err := strconv.Atoi(m[len(m)-1][2]); err == nil && n > 0 {
			result.TotalPages = n
		}
	}

	return result, nil
}

func (s *Scraper) parseSearchRow(row *goquery.Selection) (model.BookRecord, bool) {
	link := row.Find(`a[href*="marc_no="]`).First()
	if link.Length() == 0 {
		return model.BookRecord{}, false
	}

	m := marcNoPattern.FindStringSubmatch(link.AttrOr("href", ""))
	title := cleanText(link.Text())
	if m == nil || title == "" {
		return model.BookRecord{}, false
	}

	// the result list identifies holdings by call number only
	callNo := cleanText(row.Find(".callno").First().Text())

	return model.BookRecord{
		ID:         m[1],
		Title:      title,
		Author:     cleanText(row.Find(".author").First().Text()),
		Barcode:    callNo,
		CallNumber: callNo,
		Status:     s.StatusOf(row.Find(".status").First().Text()),
	}, true
}

// ParseHoldings parses an item detail page into one record per physical copy
func (s *Scraper) ParseHoldings(p Page, bookID string) ([]model.BookRecord, error) {
	doc, err := p.document()
	if err != nil {
		return nil, err
	}

	title, author := parseTitleAuthor(doc)
	books := make([]model.BookRecord, 0)

	doc.Find("table#item tr.whitetext").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 5 {
			return
		}
		barcode := cleanText(cells.Eq(1).Text())
		if barcode == "" {
			return
		}
		books = append(books, model.BookRecord{
			ID:         bookID,
			Title:      title,
			Author:     author,
			Barcode:    barcode,
			CallNumber: cleanText(cells.Eq(0).Text()),
			Location:   cleanText(cells.Eq(3).Text()),
			Status:     s.StatusOf(cells.Eq(4).Text()),
		})
	})

	if len(books) == 0 && !s.NoResults(p) {
		return nil, ErrParseFailure
	}

	return books, nil
}

// parseTitleAuthor reads the "title/author" definition list entry
func parseTitleAuthor(doc *goquery.Document) (title, author string) {
	doc.Find("dl.booklist").EachWithBreak(func(_ int, dl *goquery.Selection) bool {
		if !strings.Contains(dl.Find("dt").Text(), titleLabelMatch) {
			return true
		}
		value := cleanText(dl.Find("dd").First().Text())
		t, a, _ := strings.Cut(value, "/")
		title, author = strings.TrimSpace(t), strings.TrimSpace(a)
		return false
	})
	return title, author
}
