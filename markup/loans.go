package markup

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/s0up4200/libgate/model"
)

const dateLayout = "2006-01-02"

var renewCallPattern = regexp.MustCompile(`getInLib\('([^']*)'\s*,\s*'([^']*)'`)

// ParseLoans parses the "current loans" page. Rows without a barcode or a
// readable due date are skipped.
func (s *Scraper) ParseLoans(p Page) ([]model.LoanRecord, error) {
	doc, err := p.document()
	if err != nil {
		return nil, err
	}

	loans := make([]model.LoanRecord, 0)
	doc.Find("table.table_line tr").Each(func(_ int, row *goquery.Selection) {
		if loan, ok := parseLoanRow(row); ok {
			loans = append(loans, loan)
		}
	})

	if len(loans) == 0 && !s.NoResults(p) {
		return nil, ErrParseFailure
	}

	return loans, nil
}

func parseLoanRow(row *goquery.Selection) (model.LoanRecord, bool) {
	cells := row.Find("td.whitetext")
	if cells.Length() < 6 {
		return model.LoanRecord{}, false
	}

	barcode := cleanText(cells.Eq(0).Text())
	if barcode == "" {
		return model.LoanRecord{}, false
	}

	due, err := time.Parse(dateLayout, cleanText(cells.Eq(3).Text()))
	if err != nil {
		return model.LoanRecord{}, false
	}

	loan := model.LoanRecord{
		Barcode:  barcode,
		DueAt:    due,
		Location: cleanText(cells.Eq(5).Text()),
	}

	titleCell := cells.Eq(1)
	link := titleCell.Find("a").First()
	loan.Title = cleanText(link.Text())
	if m := marcNoPattern.FindStringSubmatch(link.AttrOr("href", "")); m != nil {
		loan.BookID = m[1]
	}
	full := cleanText(titleCell.Text())
	if loan.Title == "" {
		title, _, _ := strings.Cut(full, "/")
		loan.Title = strings.TrimSpace(title)
	}
	rest := strings.TrimSpace(strings.TrimPrefix(full, loan.Title))
	loan.Author = strings.TrimSpace(strings.TrimPrefix(rest, "/"))

	if borrowed, err := time.Parse(dateLayout, cleanText(cells.Eq(2).Text())); err == nil {
		loan.BorrowedAt = borrowed
	}
	if n, err := strconv.Atoi(cleanText(cells.Eq(4).Text())); err == nil {
		loan.Renewals = n
	}

	// the check token only appears inside the renew button's handler
	row.Find("[onclick]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		m := renewCallPattern.FindStringSubmatch(sel.AttrOr("onclick", ""))
		if m == nil || m[1] != barcode {
			return true
		}
		loan.Check = m[2]
		return false
	})

	return loan, true
}

// RenewOutcome interprets the renewal endpoint's reply. Anything without the
// success marker is a rejection carrying the upstream message.
func (s *Scraper) RenewOutcome(p Page) model.RenewOutcome {
	if p.Contains(s.markers.RenewSuccess) {
		return model.Renewed()
	}
	doc, err := p.document()
	if err != nil {
		return model.Rejected("")
	}
	return model.Rejected(cleanText(doc.Text()))
}
