package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edhire/dashgate-go/internal/request"
	"github.com/edhire/dashgate-go/internal/types"
)

// fakeStore counts Clear calls so tests can assert the session is
// invalidated exactly once per failing call.
type fakeStore struct {
	mu     sync.Mutex
	sess   types.Session
	clears int
}

func newFakeStore(access, refresh string) *fakeStore {
	return &fakeStore{sess: types.Session{AccessToken: access, RefreshToken: refresh}}
}

func (f *fakeStore) Get() types.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sess
}

func (f *fakeStore) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.sess = types.Session{}
}

func (f *fakeStore) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears
}

func outboundFor(t *testing.T, baseURL, path string) *request.Outbound {
	t.Helper()
	builder, err := request.NewBuilder(baseURL)
	require.NoError(t, err)
	return builder.Get(path, nil)
}

func TestDo_EmptySessionNeverReachesNetwork(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	store := newFakeStore("", "")
	client := New(&Options{Store: store, HTTPClient: srv.Client()})

	ctx := WithOrigin(context.Background(), "/dashboard/courses/")
	res := client.Do(ctx, outboundFor(t, srv.URL, "/educator/courses/"))

	assert.Equal(t, OutcomeRedirect, res.Outcome)
	require.NotNil(t, res.Redirect)
	assert.Equal(t, "/login/", res.Redirect.Target)
	assert.Equal(t, "/dashboard/courses/", res.Redirect.From)
	assert.Equal(t, "/login/?redirect=%2Fdashboard%2Fcourses%2F", res.Redirect.Location())
	assert.Zero(t, calls, "unauthenticated calls must not leak to the backend")
	assert.Zero(t, store.clearCount())
}

func TestDo_Success(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [], "count": 0}`))
	}))
	defer srv.Close()

	store := newFakeStore("acc-1", "ref-1")
	client := New(&Options{Store: store, HTTPClient: srv.Client()})

	res := client.Do(context.Background(), outboundFor(t, srv.URL, "/educator/courses/"))

	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.JSONEq(t, `{"results": [], "count": 0}`, string(res.Payload))
	assert.Equal(t, "Bearer acc-1", gotAuth)
	// No session mutation on success.
	assert.Zero(t, store.clearCount())
	assert.False(t, store.Get().Empty())
}

func TestDo_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "token expired"}`))
	}))
	defer srv.Close()

	store := newFakeStore("acc-stale", "ref-stale")
	client := New(&Options{Store: store, HTTPClient: srv.Client()})

	ctx := WithOrigin(context.Background(), "/dashboard/")
	res := client.Do(ctx, outboundFor(t, srv.URL, "/educator/dashboard/stats/"))

	assert.Equal(t, OutcomeRedirect, res.Outcome)
	require.NotNil(t, res.Redirect)
	assert.Equal(t, "/dashboard/", res.Redirect.From)
	// Cleared exactly once, and before the redirect was returned.
	assert.Equal(t, 1, store.clearCount())
	assert.True(t, store.Get().Empty())
}

func TestDo_NonJSONSuccessIsProtocolMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html>proxy error page</html>"))
	}))
	defer srv.Close()

	store := newFakeStore("acc-1", "")
	client := New(&Options{Store: store, HTTPClient: srv.Client()})

	res := client.Do(context.Background(), outboundFor(t, srv.URL, "/educator/courses/"))

	assert.Equal(t, OutcomeFailed, res.Outcome)
	require.NotNil(t, res.Failure)
	assert.True(t, res.Failure.Mismatch)
	assert.Equal(t, http.StatusBadGateway, res.Failure.StatusCode)
	assert.Contains(t, res.Failure.Message, "text/html")
	// A misconfigured proxy is not the session's fault.
	assert.Zero(t, store.clearCount())
}

func TestDo_UnparsableJSONInvalidatesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [`))
	}))
	defer srv.Close()

	store := newFakeStore("acc-1", "ref-1")
	client := New(&Options{Store: store, HTTPClient: srv.Client()})

	res := client.Do(context.Background(), outboundFor(t, srv.URL, "/educator/courses/"))

	assert.Equal(t, OutcomeRedirect, res.Outcome)
	assert.Equal(t, 1, store.clearCount())
}

func TestDo_BackendErrorIsRecoverable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "Missing or invalid \"action\" or \"ids\""}`))
	}))
	defer srv.Close()

	store := newFakeStore("acc-1", "ref-1")
	client := New(&Options{Store: store, HTTPClient: srv.Client()})

	res := client.Do(context.Background(), outboundFor(t, srv.URL, "/educator/courses/bulk/"))

	assert.Equal(t, OutcomeFailed, res.Outcome)
	require.NotNil(t, res.Failure)
	assert.Equal(t, http.StatusBadRequest, res.Failure.StatusCode)
	assert.Equal(t, `Missing or invalid "action" or "ids"`, res.Failure.Message)
	assert.False(t, res.Failure.Mismatch)
	// Ordinary backend errors leave the session alone.
	assert.Zero(t, store.clearCount())
	assert.False(t, store.Get().Empty())
}

func TestDo_ServerErrorPlainTextBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	store := newFakeStore("acc-1", "")
	client := New(&Options{Store: store, HTTPClient: srv.Client()})

	res := client.Do(context.Background(), outboundFor(t, srv.URL, "/educator/courses/"))

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, http.StatusServiceUnavailable, res.Failure.StatusCode)
	assert.Equal(t, "upstream down", res.Failure.Message)
}

func TestDo_TransportFailureInvalidatesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // connection refused from here on

	store := newFakeStore("acc-1", "ref-1")
	client := New(&Options{Store: store, HTTPClient: &http.Client{}})

	ctx := WithOrigin(context.Background(), "/dashboard/courses/")
	res := client.Do(ctx, outboundFor(t, url, "/educator/courses/"))

	// Cannot tell "token bad" from "network down"; the conservative
	// outcome is a cleared session and a redirect, not an error page.
	assert.Equal(t, OutcomeRedirect, res.Outcome)
	require.NotNil(t, res.Redirect)
	assert.Equal(t, "/dashboard/courses/", res.Redirect.From)
	assert.Equal(t, 1, store.clearCount())
	assert.True(t, store.Get().Empty())
}

func TestDo_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := newFakeStore("acc-1", "")
	client := New(&Options{Store: store, HTTPClient: srv.Client()})

	res := client.Do(context.Background(), outboundFor(t, srv.URL, "/educator/courses/1/delete/"))

	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Equal(t, "null", string(res.Payload))
	assert.Zero(t, store.clearCount())
}

func TestRedirectIntent_Location(t *testing.T) {
	tests := []struct {
		name string
		from string
		want string
	}{
		{name: "root origin omits param", from: "/", want: "/login/"},
		{name: "empty origin omits param", from: "", want: "/login/"},
		{name: "path preserved", from: "/dashboard/courses/7/edit", want: "/login/?redirect=%2Fdashboard%2Fcourses%2F7%2Fedit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := RedirectIntent{Target: "/login/", From: tt.from}
			assert.Equal(t, tt.want, intent.Location())
		})
	}
}

func TestDo_RefreshOnlySessionStillPresented(t *testing.T) {
	// A session with only a refresh token is not empty; the backend gets
	// to decide, and its 401 clears the pair.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := newFakeStore("", "ref-only")
	client := New(&Options{Store: store, HTTPClient: srv.Client()})

	res := client.Do(context.Background(), outboundFor(t, srv.URL, "/educator/auth/me/"))

	assert.Equal(t, OutcomeRedirect, res.Outcome)
	assert.Equal(t, 1, store.clearCount())
}
