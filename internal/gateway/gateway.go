// Package gateway executes outbound backend calls on behalf of a browser
// session: it attaches bearer credentials, classifies the response, and on
// authentication failure invalidates the session and signals a redirect.
// The redirect is a first-class result variant, not error control flow.
package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/edhire/dashgate-go/internal/envelope"
	"github.com/edhire/dashgate-go/internal/request"
	"github.com/edhire/dashgate-go/internal/session"
	"github.com/edhire/dashgate-go/internal/types"
)

// Outcome classifies one gateway call.
type Outcome int

const (
	// OutcomeOK means a 2xx JSON response; Payload carries the body.
	OutcomeOK Outcome = iota

	// OutcomeRedirect means the session was missing or judged invalid.
	// The session store has already been cleared; the caller must issue
	// an HTTP 302 to Redirect.Location(). Not recoverable in-page.
	OutcomeRedirect

	// OutcomeFailed means a well-formed backend error or a non-JSON 2xx.
	// Recoverable: the caller may render an error page from Failure.
	OutcomeFailed
)

// RedirectIntent tells the calling layer where to send the browser and
// which path to preserve so the login flow can return the user there.
type RedirectIntent struct {
	Target string
	From   string
}

// Location renders the redirect target with the original path encoded as
// a single query parameter.
func (r *RedirectIntent) Location() string {
	if r.From == "" || r.From == "/" {
		return r.Target
	}
	return r.Target + "?" + types.RedirectParam + "=" + url.QueryEscape(r.From)
}

// Failure describes a recoverable backend error. Mismatch marks a 2xx
// response with a non-JSON content type, a backend/proxy fault rather
// than an application error.
type Failure struct {
	StatusCode int
	Message    string
	Mismatch   bool
}

// Result is the tagged outcome of one call. Exactly one of Payload,
// Redirect and Failure is meaningful, selected by Outcome.
type Result struct {
	Outcome  Outcome
	Payload  json.RawMessage
	Redirect *RedirectIntent
	Failure  *Failure
}

type originKey struct{}

// WithOrigin records the browser path of the render in flight so a
// redirect produced by any call under this context preserves it.
func WithOrigin(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, originKey{}, path)
}

func originFrom(ctx context.Context) string {
	if p, ok := ctx.Value(originKey{}).(string); ok && p != "" {
		return p
	}
	return "/"
}

// Options configures a gateway client. Store and HTTPClient are explicit
// collaborators so the gateway is testable with fakes.
type Options struct {
	Store       session.Store
	HTTPClient  *http.Client
	RetryConfig *types.RetryConfig
	Logger      types.Logger
	Hooks       *types.Hooks
}

// Client executes built requests against the backend for one session.
type Client struct {
	store       session.Store
	httpClient  *http.Client
	retryClient *retryablehttp.Client
	logger      types.Logger
	hooks       *types.Hooks
}

// New creates a gateway client. A nil RetryConfig keeps every call
// single-shot; the gateway never retries a classified failure on its own.
func New(opts *Options) *Client {
	if opts == nil {
		opts = &Options{}
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: types.DefaultTimeout}
	}

	var retryClient *retryablehttp.Client
	if opts.RetryConfig != nil {
		retryClient = retryablehttp.NewClient()
		retryClient.HTTPClient = opts.HTTPClient
		retryClient.RetryMax = opts.RetryConfig.MaxRetries
		retryClient.RetryWaitMin = opts.RetryConfig.RetryWait
		retryClient.RetryWaitMax = opts.RetryConfig.MaxWait
		if opts.Logger != nil {
			retryClient.Logger = &retryLogger{logger: opts.Logger}
		} else {
			retryClient.Logger = nil
		}
	}

	return &Client{
		store:       opts.Store,
		httpClient:  opts.HTTPClient,
		retryClient: retryClient,
		logger:      opts.Logger,
		hooks:       opts.Hooks,
	}
}

// Do runs one call through the session state machine.
//
// An empty session never reaches the network: the call resolves to a
// redirect immediately, which both avoids a doomed request and avoids
// leaking request intent to an unauthenticated backend. A transport
// error, a 401, or an unparsable body from a JSON endpoint all invalidate
// the session; clearing the store happens before the redirect is
// returned, so a subsequent render never observes a half-cleared session.
func (c *Client) Do(ctx context.Context, out *request.Outbound) Result {
	sess := c.store.Get()
	if sess.Empty() {
		if c.logger != nil {
			c.logger.Debug("no session, skipping backend call", "url", out.URL)
		}
		return c.redirect(ctx)
	}

	req, err := out.HTTPRequest(ctx)
	if err != nil {
		// Building from an already-validated Outbound cannot normally
		// fail; treat it as a local fault, not a session problem.
		return failed(http.StatusInternalServerError, err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)

	if c.hooks != nil && c.hooks.OnRequest != nil {
		c.hooks.OnRequest(ctx, req)
	}
	if c.logger != nil {
		c.logger.Debug("backend request", "method", out.Method, "url", out.URL)
	}

	start := time.Now()
	resp, err := c.doRequest(req)
	duration := time.Since(start)

	if err != nil {
		// Cannot distinguish "token bad" from "network down" without a
		// status code; dropping the session and forcing re-login is
		// safer than rendering a broken page.
		if c.hooks != nil && c.hooks.OnError != nil {
			c.hooks.OnError(ctx, err)
		}
		if c.logger != nil {
			c.logger.Warn("transport failure, invalidating session", "error", err)
		}
		return c.invalidate(ctx)
	}
	defer resp.Body.Close()

	if c.hooks != nil && c.hooks.OnResponse != nil {
		c.hooks.OnResponse(ctx, resp, duration)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("failed reading response body, invalidating session", "error", err)
		}
		return c.invalidate(ctx)
	}

	if c.logger != nil {
		c.logger.Debug("backend response", "status", resp.StatusCode, "duration", duration, "size", len(body))
	}

	return c.classify(ctx, resp, body)
}

func (c *Client) classify(ctx context.Context, resp *http.Response, body []byte) Result {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return c.invalidate(ctx)

	case resp.StatusCode == http.StatusNoContent:
		return Result{Outcome: OutcomeOK, Payload: json.RawMessage(`null`)}

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		contentType := resp.Header.Get("Content-Type")
		if !strings.Contains(contentType, "application/json") {
			// A 2xx HTML page is a proxy/backend misconfiguration, not
			// business data. Surface it instead of silently succeeding.
			return Result{
				Outcome: OutcomeFailed,
				Failure: &Failure{
					StatusCode: http.StatusBadGateway,
					Message:    "unexpected content type: " + contentType,
					Mismatch:   true,
				},
			}
		}
		if !gjson.ValidBytes(body) {
			// An unparsable body from an endpoint that must return JSON
			// is not trustworthy enough to keep the session alive.
			if c.logger != nil {
				c.logger.Warn("unparsable JSON from backend, invalidating session", "status", resp.StatusCode)
			}
			return c.invalidate(ctx)
		}
		return Result{Outcome: OutcomeOK, Payload: body}

	default:
		return failed(resp.StatusCode, envelope.ErrorMessage(body))
	}
}

// invalidate clears the session exactly once for this call and produces
// the redirect. Never retried: retrying with a known-bad token would loop.
func (c *Client) invalidate(ctx context.Context) Result {
	c.store.Clear()
	return c.redirect(ctx)
}

func (c *Client) redirect(ctx context.Context) Result {
	return Result{
		Outcome: OutcomeRedirect,
		Redirect: &RedirectIntent{
			Target: types.LoginPath,
			From:   originFrom(ctx),
		},
	}
}

func failed(status int, message string) Result {
	return Result{
		Outcome: OutcomeFailed,
		Failure: &Failure{StatusCode: status, Message: message},
	}
}

func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	if c.retryClient != nil {
		retryReq, err := retryablehttp.FromRequest(req)
		if err != nil {
			return nil, err
		}
		return c.retryClient.Do(retryReq)
	}
	return c.httpClient.Do(req)
}

// retryLogger adapts our logger to retryablehttp
type retryLogger struct {
	logger types.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}
