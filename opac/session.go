package opac

import (
	"crypto/sha256"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/s0up4200/libgate/model"
)

// Session is an authenticated OPAC browser session. The jar keeps the
// cookies the OPAC issued at login and picks up any it rotates later.
type Session struct {
	StudentID model.StudentID
	CreatedAt time.Time

	jar         http.CookieJar
	origin      *url.URL
	fingerprint []byte
}

func newSession(id model.StudentID, jar http.CookieJar, origin *url.URL, password string) (*Session, error) {
	fp, err := fingerprint(password)
	if err != nil {
		return nil, err
	}
	return &Session{
		StudentID:   id,
		CreatedAt:   time.Now(),
		jar:         jar,
		origin:      origin,
		fingerprint: fp,
	}, nil
}

// Cookies returns the session cookies currently held for the OPAC
func (s *Session) Cookies() []*http.Cookie {
	return s.jar.Cookies(s.origin)
}

// Matches reports whether the session was created with this password
func (s *Session) Matches(password string) bool {
	sum := sha256.Sum256([]byte(password))
	return bcrypt.CompareHashAndPassword(s.fingerprint, sum[:]) == nil
}

// fingerprint hashes the digest rather than the password so passwords
// longer than bcrypt's 72 byte limit are still distinguished
func fingerprint(password string) ([]byte, error) {
	sum := sha256.Sum256([]byte(password))
	return bcrypt.GenerateFromPassword(sum[:], bcrypt.MinCost)
}
