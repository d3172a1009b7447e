package markup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/libgate/model"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(dateLayout, s)
	require.NoError(t, err)
	return d
}

func TestParseLoans(t *testing.T) {
	s := NewScraper(Markers{})

	loans, err := s.ParseLoans(fixture(t, "loans.html"))
	require.NoError(t, err)
	require.Len(t, loans, 2, "row with unreadable dates must be skipped")

	assert.Equal(t, model.LoanRecord{
		Barcode:    "T1234567",
		BookID:     "0000012345",
		Title:      "Database System Concepts",
		Author:     "Abraham Silberschatz",
		Check:      "5A3B2C1D",
		BorrowedAt: date(t, "2016-03-01"),
		DueAt:      date(t, "2016-04-01"),
		Renewals:   0,
		Location:   "Main Library",
	}, loans[0])

	assert.Equal(t, "T7654321", loans[1].Barcode)
	assert.Equal(t, "9F8E7D6C", loans[1].Check)
	assert.Equal(t, "Compilers", loans[1].Title)
	assert.Equal(t, "Alfred V. Aho", loans[1].Author)
	assert.Equal(t, 1, loans[1].Renewals)
	assert.Equal(t, date(t, "2016-04-10"), loans[1].DueAt)
}

func TestParseLoans_Empty(t *testing.T) {
	s := NewScraper(Markers{})

	loans, err := s.ParseLoans(fixture(t, "loans_empty.html"))
	require.NoError(t, err)
	assert.NotNil(t, loans)
	assert.Empty(t, loans)
}

func TestParseLoans_ChangedLayout(t *testing.T) {
	s := NewScraper(Markers{})

	_, err := s.ParseLoans(fixture(t, "maintenance.html"))
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestRenewOutcome(t *testing.T) {
	s := NewScraper(Markers{})

	tests := []struct {
		name    string
		fixture string
		want    model.RenewOutcome
	}{
		{name: "renewed", fixture: "renew_ok.html", want: model.Renewed()},
		{name: "limit reached", fixture: "renew_limit.html", want: model.Rejected("超过最大续借次数，不得续借！")},
		{name: "unknown barcode", fixture: "renew_unknown.html", want: model.Rejected("错误的条码号")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.RenewOutcome(fixture(t, tt.fixture)))
		})
	}
}

func TestRenewOutcome_EmptyBody(t *testing.T) {
	s := NewScraper(Markers{})

	out := s.RenewOutcome(NewPage(opacBase+"ajax_renew.php", nil))
	assert.False(t, out.Renewed)
	assert.Equal(t, "renewal rejected", out.Reason)
}
