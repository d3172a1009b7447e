package opac

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

const sessionCookie = "PHPSESSID"

// fakeOPAC serves captured OPAC pages and keeps just enough state to
// behave like the real login and session handling
type fakeOPAC struct {
	t   *testing.T
	srv *httptest.Server

	mu          sync.Mutex
	passwords   map[string]string
	sessions    map[string]string
	nextToken   int
	loginPosts  int
	loanHits    int
	renewHits   int
	searchHits  int
	maintenance bool
	rejectAll   bool
	delay       time.Duration
	searchPages int
}

func newFakeOPAC(t *testing.T) *fakeOPAC {
	t.Helper()
	f := &fakeOPAC{
		t:         t,
		passwords: map[string]string{"20160001": "secret"},
		sessions:  make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/reader/login.php", f.handleLoginPage)
	mux.HandleFunc("/reader/redr_verify.php", f.handleVerify)
	mux.HandleFunc("/reader/book_lst.php", f.handleLoans)
	mux.HandleFunc("/reader/ajax_renew.php", f.handleRenew)
	mux.HandleFunc("/opac/openlink.php", f.handleSearch)
	mux.HandleFunc("/opac/item.php", f.handleItem)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeOPAC) service(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc, err := New(f.srv.URL, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return svc
}

func (f *fakeOPAC) page(name string) []byte {
	body, err := os.ReadFile(filepath.Join("..", "markup", "testdata", name))
	require.NoError(f.t, err)
	return body
}

func (f *fakeOPAC) write(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(f.page(name))
}

// student returns the student the request's cookie is logged in as
func (f *fakeOPAC) student(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rejectAll {
		return "", false
	}
	id, ok := f.sessions[c.Value]
	return id, ok
}

func (f *fakeOPAC) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	f.write(w, "login_page.html")
}

func (f *fakeOPAC) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.loginPosts++
	maintenance := f.maintenance
	want, known := f.passwords[r.PostForm.Get("number")]
	f.mu.Unlock()

	if maintenance {
		f.write(w, "maintenance.html")
		return
	}
	if r.PostForm.Get("csrf_token") != "a1b2c3d4" || r.PostForm.Get("select") != "cert_no" {
		http.Error(w, "missing form token", http.StatusBadRequest)
		return
	}
	if !known || r.PostForm.Get("passwd") != want {
		f.write(w, "login_failed.html")
		return
	}

	f.mu.Lock()
	f.nextToken++
	token := fmt.Sprintf("tok-%d", f.nextToken)
	f.sessions[token] = r.PostForm.Get("number")
	f.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/"})
	f.write(w, "reader_info.html")
}

func (f *fakeOPAC) handleLoans(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.loanHits++
	f.mu.Unlock()

	if _, ok := f.student(r); !ok {
		f.write(w, "session_expired.html")
		return
	}
	f.write(w, "loans.html")
}

func (f *fakeOPAC) handleRenew(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.renewHits++
	f.mu.Unlock()

	if _, ok := f.student(r); !ok {
		f.write(w, "session_expired.html")
		return
	}

	held := map[string]string{"T1234567": "5A3B2C1D", "T7654321": "9F8E7D6C"}
	q := r.URL.Query()
	check, ok := held[q.Get("bar_code")]
	if !ok || check != q.Get("check") {
		f.write(w, "renew_unknown.html")
		return
	}
	f.write(w, "renew_ok.html")
}

func (f *fakeOPAC) handleSearch(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.searchHits++
	delay := f.delay
	pages := f.searchPages
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	q := r.URL.Query()
	switch q.Get("strText") {
	case "database":
		f.write(w, "search_results.html")
	case "changed":
		f.write(w, "search_changed.html")
	case "paged":
		page := q.Get("page")
		var b strings.Builder
		fmt.Fprintf(&b, `<p id="titlenav">检索到记录 <strong class="red">%d</strong> 条, 当前第 %s/%d 页</p><ol>`, pages, page, pages)
		fmt.Fprintf(&b, `<li class="book_list_info"><h3><a href="item.php?marc_no=P%s">Paged %s</a> <span class="callno">C%s</span></h3><p><span class="status">可借</span></p></li></ol>`, page, page, page)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(b.String()))
	default:
		f.write(w, "search_empty.html")
	}
}

func (f *fakeOPAC) handleItem(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("marc_no") {
	case "12345":
		f.write(w, "item_detail.html")
	case "gbk":
		body, err := simplifiedchinese.GBK.NewEncoder().Bytes(f.page("item_detail.html"))
		require.NoError(f.t, err)
		body = []byte(strings.Replace(string(body), "charset=utf-8", "charset=gbk", 1))
		w.Header().Set("Content-Type", "text/html; charset=gbk")
		_, _ = w.Write(body)
	case "missing":
		http.NotFound(w, r)
	default:
		f.write(w, "item_pending.html")
	}
}

func (f *fakeOPAC) expireAll() {
	f.mu.Lock()
	f.sessions = make(map[string]string)
	f.mu.Unlock()
}

func (f *fakeOPAC) setPassword(id, pw string) {
	f.mu.Lock()
	f.passwords[id] = pw
	f.mu.Unlock()
}

func (f *fakeOPAC) set(fn func(f *fakeOPAC)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

func (f *fakeOPAC) counts() (logins, loans, renews, searches int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginPosts, f.loanHits, f.renewHits, f.searchHits
}
