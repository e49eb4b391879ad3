package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const cookieName = "fa_session"

// Manager issues and verifies HMAC-signed session cookies. The cookie
// value is "<id>.<signature>"; a bad or missing signature is treated as
// no session at all.
type Manager struct {
	secret []byte
	maxAge time.Duration
}

func NewManager(secret string, maxAge time.Duration) *Manager {
	return &Manager{secret: []byte(secret), maxAge: maxAge}
}

// SessionID extracts and verifies the session ID from the request
// cookie. The boolean reports whether a valid session cookie was found.
func (m *Manager) SessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return "", false
	}
	id, sig, ok := strings.Cut(c.Value, ".")
	if !ok || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(m.sign(id))) {
		return "", false
	}
	return id, true
}

// Ensure returns the request's session ID, minting and setting a new
// signed cookie when none is present or the signature does not verify.
func (m *Manager) Ensure(w http.ResponseWriter, r *http.Request) string {
	if id, ok := m.SessionID(r); ok {
		return id
	}

	id := newSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id + "." + m.sign(id),
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (m *Manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

// newSessionID creates a random session identifier.
func newSessionID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("sess_%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
