package markup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/libgate/model"
)

const opacBase = "http://opac.example.edu/reader/"

func fixture(t *testing.T, name string) Page {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return NewPage(opacBase+"page.php", body)
}

func TestLoginSucceeded(t *testing.T) {
	s := NewScraper(Markers{})

	tests := []struct {
		name     string
		fixture  string
		want     bool
		rejected bool
	}{
		{name: "reader home", fixture: "reader_info.html", want: true},
		{name: "wrong password", fixture: "login_failed.html", rejected: true},
		{name: "login page", fixture: "login_page.html"},
		{name: "maintenance page", fixture: "maintenance.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fixture(t, tt.fixture)
			assert.Equal(t, tt.want, s.LoginSucceeded(p))
			assert.Equal(t, tt.rejected, s.LoginRejected(p))
		})
	}
}

func TestLoginSucceeded_FailureMarkerWins(t *testing.T) {
	s := NewScraper(Markers{})
	p := NewPage(opacBase+"redr_verify.php", []byte(`<a href="logout.php">注销</a> 密码错误`))
	assert.False(t, s.LoginSucceeded(p))
	assert.True(t, s.LoginRejected(p))
}

func TestIsSessionExpiredResponse(t *testing.T) {
	s := NewScraper(Markers{})

	assert.True(t, s.IsSessionExpiredResponse(fixture(t, "session_expired.html")))
	assert.False(t, s.IsSessionExpiredResponse(fixture(t, "loans.html")))
	assert.False(t, s.IsSessionExpiredResponse(fixture(t, "search_results.html")))

	redirected := NewPage(opacBase+"login.php", []byte("<html></html>"))
	assert.True(t, s.IsSessionExpiredResponse(redirected))
}

func TestStatusOf(t *testing.T) {
	s := NewScraper(Markers{})

	tests := []struct {
		text string
		want model.Status
	}{
		{"可借", model.StatusAvailable},
		{" 可借 ", model.StatusAvailable},
		{"借出-应还日期：2016-05-01", model.StatusCheckedOut},
		{"不可借", model.StatusCheckedOut},
		{"馆内阅览", model.StatusUnknown},
		{"", model.StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, s.StatusOf(tt.text))
		})
	}
}

func TestNewScraper_CustomMarkers(t *testing.T) {
	s := NewScraper(Markers{LoginFailure: []string{"bad password"}})

	assert.Equal(t, []string{"bad password"}, s.Markers().LoginFailure)
	assert.Equal(t, DefaultMarkers().SessionExpired, s.Markers().SessionExpired)
	assert.True(t, s.LoginRejected(NewPage(opacBase, []byte("bad password"))))
	assert.False(t, s.LoginRejected(fixture(t, "login_failed.html")))
}

func TestParseLoginForm(t *testing.T) {
	s := NewScraper(Markers{})

	form, err := s.ParseLoginForm(fixture(t, "login_page.html"))
	require.NoError(t, err)

	assert.Equal(t, opacBase+"redr_verify.php", form.Action.String())
	assert.Equal(t, "number", form.UserField)
	assert.Equal(t, "passwd", form.PasswordField)
	assert.Equal(t, "a1b2c3d4", form.Fields.Get("csrf_token"))
	assert.Equal(t, "cert_no", form.Fields.Get("select"))

	values := form.Values(model.Credentials{StudentID: "20160001", Password: "secret"})
	assert.Equal(t, "20160001", values.Get("number"))
	assert.Equal(t, "secret", values.Get("passwd"))
	assert.Equal(t, "a1b2c3d4", values.Get("csrf_token"))

	// Values must not leak into the scraped form
	assert.Empty(t, form.Fields.Get("passwd"))
}

func TestParseLoginForm_Missing(t *testing.T) {
	s := NewScraper(Markers{})

	_, err := s.ParseLoginForm(fixture(t, "maintenance.html"))
	assert.ErrorIs(t, err, ErrNoLoginForm)
}

func TestNewPage_InvalidURL(t *testing.T) {
	assert.Panics(t, func() { NewPage("http://opac.example.edu/%zz", nil) })

	p := NewPage(opacBase+"login.php", nil)
	require.NotNil(t, p.URL)
	assert.Equal(t, "/reader/login.php", p.URL.Path)
}
