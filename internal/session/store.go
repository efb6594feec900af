// Package session implements the credential store: durable per-session
// storage for the access/refresh token pair. Stores have no logic beyond
// get and clear; the gateway decides when a session is no longer
// trustworthy.
package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/edhire/dashgate-go/internal/types"
)

// Store reads and destroys the token pair backing one browser session.
//
// Clear removes both tokens atomically and is idempotent: clearing an
// already-empty store is a no-op, never an error. Its effect is observable
// only through subsequent Get calls returning an empty session.
type Store interface {
	Get() types.Session
	Clear()
}

// CookieStore backs a session with the access_token/refresh_token cookies
// of a single in-flight server-rendered request. Clear expires both
// cookies on the response, scoped to path "/".
type CookieStore struct {
	req     *http.Request
	w       http.ResponseWriter
	mu      sync.Mutex
	cleared bool
}

// NewCookieStore wraps the request/response pair of one page render.
func NewCookieStore(req *http.Request, w http.ResponseWriter) *CookieStore {
	return &CookieStore{req: req, w: w}
}

func (s *CookieStore) Get() types.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cleared {
		return types.Session{}
	}

	var sess types.Session
	if c, err := s.req.Cookie(types.AccessTokenCookie); err == nil {
		sess.AccessToken = c.Value
	}
	if c, err := s.req.Cookie(types.RefreshTokenCookie); err == nil {
		sess.RefreshToken = c.Value
	}
	return sess
}

func (s *CookieStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cleared {
		return
	}
	s.cleared = true

	for _, name := range []string{types.AccessTokenCookie, types.RefreshTokenCookie} {
		http.SetCookie(s.w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
		})
	}
}

// MemoryStore keeps the session in memory. Used by tests and examples.
type MemoryStore struct {
	mu   sync.Mutex
	sess types.Session
}

// NewMemoryStore creates a store seeded with the given session.
func NewMemoryStore(sess types.Session) *MemoryStore {
	return &MemoryStore{sess: sess}
}

func (s *MemoryStore) Get() types.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = types.Session{}
}
