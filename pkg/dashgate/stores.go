package dashgate

import (
	"net/http"

	"github.com/edhire/dashgate-go/internal/session"
	internalTypes "github.com/edhire/dashgate-go/internal/types"
)

// Session is the pair of opaque bearer tokens identifying a user. Both
// empty means unauthenticated.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Empty reports whether the session carries no credentials.
func (s Session) Empty() bool {
	return s.AccessToken == "" && s.RefreshToken == ""
}

// CredentialStore reads and destroys the token pair backing one session.
// Clear removes both tokens as a pair, never individually, and is
// idempotent. Implementations must be safe for use from concurrent page
// renders.
type CredentialStore interface {
	Get() Session
	Clear()
}

// NewCookieStore backs the credentials with the access_token and
// refresh_token cookies of one in-flight server-rendered request. Clear
// expires both cookies on the response writer.
func NewCookieStore(req *http.Request, w http.ResponseWriter) CredentialStore {
	return wrappedStore{s: session.NewCookieStore(req, w)}
}

// NewFileStore backs the credentials with a JSON file, for CLI use.
func NewFileStore(path string) CredentialStore {
	return wrappedStore{s: session.NewFileStore(path)}
}

// NewMemoryStore holds the given tokens in memory.
func NewMemoryStore(accessToken, refreshToken string) CredentialStore {
	return wrappedStore{s: session.NewMemoryStore(internalTypes.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})}
}

// wrappedStore exposes an internal store through the public interface.
type wrappedStore struct {
	s session.Store
}

func (w wrappedStore) Get() Session {
	sess := w.s.Get()
	return Session{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken}
}

func (w wrappedStore) Clear() {
	w.s.Clear()
}

// internalStore adapts a public CredentialStore for the gateway.
type internalStore struct {
	s CredentialStore
}

func (a internalStore) Get() internalTypes.Session {
	sess := a.s.Get()
	return internalTypes.Session{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
	}
}

func (a internalStore) Clear() {
	a.s.Clear()
}
