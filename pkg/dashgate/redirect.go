package dashgate

import (
	"context"
	"net/http"

	"github.com/edhire/dashgate-go/internal/gateway"
)

// Redirect tells the calling layer the current session is gone and the
// browser must be sent to the login page. It is a control-flow exit, not
// a data error: by the time a Redirect is returned the session store has
// already been cleared.
type Redirect struct {
	// Target is the login route.
	Target string

	// From is the browser path being rendered, preserved so the login
	// flow can return the user there.
	From string
}

// Location renders the full redirect target, with From encoded as a
// single query parameter.
func (r *Redirect) Location() string {
	intent := gateway.RedirectIntent{Target: r.Target, From: r.From}
	return intent.Location()
}

// Write issues the HTTP 302 for this redirect.
func (r *Redirect) Write(w http.ResponseWriter, req *http.Request) {
	http.Redirect(w, req, r.Location(), http.StatusFound)
}

// WithOrigin records the browser path of the render in flight. Any
// Redirect produced by calls under the returned context preserves it.
func WithOrigin(ctx context.Context, path string) context.Context {
	return gateway.WithOrigin(ctx, path)
}

func newRedirect(intent *gateway.RedirectIntent) *Redirect {
	if intent == nil {
		return nil
	}
	return &Redirect{Target: intent.Target, From: intent.From}
}
