package dashgate

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/edhire/dashgate-go/internal/envelope"
	"github.com/edhire/dashgate-go/internal/gateway"
	"github.com/edhire/dashgate-go/internal/request"
	internalTypes "github.com/edhire/dashgate-go/internal/types"
)

const (
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second

	// UserAgent is the user agent string
	UserAgent = internalTypes.UserAgent

	// AudienceEducator addresses the educator dashboard endpoints.
	AudienceEducator = "educator"

	// AudienceRecruiter addresses the recruiter dashboard endpoints.
	AudienceRecruiter = "recruiter"
)

// Client is the session-aware gateway client the dashboards render
// through.
type Client struct {
	// Service interfaces
	Courses   CourseService
	Dashboard DashboardService
	Auth      AuthService

	// Internal fields
	baseURL  string
	audience string
	builder  *request.Builder
	gateway  executor
	store    CredentialStore
	options  *ClientOptions
}

// executor runs one built request through the session state machine.
// Tests substitute a fake.
type executor interface {
	Do(ctx context.Context, out *request.Outbound) gateway.Result
}

// ClientOptions configures the client
type ClientOptions struct {
	// BaseURL is the backend API base URL. Required; there is exactly
	// one configuration source for it and it is validated here, before
	// any request is built.
	BaseURL string

	// Audience selects the educator or recruiter endpoints. Defaults to
	// AudienceEducator.
	Audience string

	// Store supplies and destroys the session tokens. When nil, one is
	// derived from SessionFile or the token fields below.
	Store CredentialStore

	// AccessToken / RefreshToken seed an in-memory store.
	AccessToken  string
	RefreshToken string

	// SessionFile path for session persistence
	SessionFile string

	// HTTPClient allows using a custom HTTP client
	HTTPClient *http.Client

	// Timeout sets the HTTP client timeout
	Timeout time.Duration

	// Logger for debug logging
	Logger Logger

	// RetryConfig enables a retrying HTTP transport. Off by default:
	// the gateway core never retries a classified failure.
	RetryConfig *internalTypes.RetryConfig

	// Hooks for observability
	Hooks *internalTypes.Hooks

	// SentryDSN enables Sentry error tracking when set
	SentryDSN string

	// SentryOptions allows custom Sentry configuration
	SentryOptions *sentry.ClientOptions
}

// Logger interface for logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// NewClient creates a new gateway client
func NewClient(opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}

	// Initialize Sentry if DSN is provided
	if opts.SentryDSN != "" || opts.SentryOptions != nil {
		sentryOpts := sentry.ClientOptions{}
		if opts.SentryOptions != nil {
			sentryOpts = *opts.SentryOptions
		}
		if opts.SentryDSN != "" {
			sentryOpts.Dsn = opts.SentryDSN
		}
		if sentryOpts.Environment == "" {
			sentryOpts.Environment = "production"
		}
		if err := sentry.Init(sentryOpts); err != nil {
			// Log error but don't fail client creation
			if opts.Logger != nil {
				opts.Logger.Error("Failed to initialize Sentry", "error", err)
			}
		}
	}

	// The base URL is a fatal configuration error when invalid and must
	// surface before any network call.
	builder, err := request.NewBuilder(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	if opts.Audience == "" {
		opts.Audience = AudienceEducator
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: DefaultTimeout,
		}
	}
	if opts.Timeout > 0 {
		opts.HTTPClient.Timeout = opts.Timeout
	}

	store := opts.Store
	if store == nil {
		switch {
		case opts.SessionFile != "":
			store = NewFileStore(opts.SessionFile)
		default:
			store = NewMemoryStore(opts.AccessToken, opts.RefreshToken)
		}
	}

	c := &Client{
		baseURL:  builder.BaseURL(),
		audience: opts.Audience,
		builder:  builder,
		store:    store,
		options:  opts,
	}
	c.gateway = c.newGateway(store)
	c.initServices()

	return c, nil
}

// NewClientWithTokens creates a client with an in-memory token pair.
func NewClientWithTokens(baseURL, accessToken, refreshToken string) (*Client, error) {
	return NewClient(&ClientOptions{
		BaseURL:      baseURL,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// initServices initializes all service implementations
func (c *Client) initServices() {
	c.Courses = &courseService{client: c}
	c.Dashboard = &dashboardService{client: c}
	c.Auth = &authService{client: c}
}

func (c *Client) newGateway(store CredentialStore) *gateway.Client {
	return gateway.New(&gateway.Options{
		Store:       internalStore{s: store},
		HTTPClient:  c.options.HTTPClient,
		RetryConfig: c.options.RetryConfig,
		Logger:      c.options.Logger,
		Hooks:       c.options.Hooks,
	})
}

// WithStore returns a client bound to a different credential store. The
// base URL, transport and services are shared; only the session differs.
func (c *Client) WithStore(store CredentialStore) *Client {
	clone := *c
	clone.store = store
	clone.gateway = clone.newGateway(store)
	clone.initServices()
	return &clone
}

// ForRequest binds a client to the cookies of one in-flight page render
// and returns a context carrying the render's path, so any redirect
// preserves where the user was.
func (c *Client) ForRequest(req *http.Request, w http.ResponseWriter) (*Client, context.Context) {
	clone := c.WithStore(NewCookieStore(req, w))
	return clone, WithOrigin(req.Context(), req.URL.Path)
}

// Session returns the tokens currently backing the client.
func (c *Client) Session() Session {
	return c.store.Get()
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close flushes any pending Sentry events and performs cleanup
func (c *Client) Close() {
	sentry.Flush(2 * time.Second)
}

// audiencePath prefixes an endpoint path with the configured audience.
func (c *Client) audiencePath(path string) string {
	return "/" + c.audience + path
}

// execute runs one built request and maps the gateway outcome into the
// public contract: payload, redirect, or recoverable backend error.
func (c *Client) execute(ctx context.Context, out *request.Outbound) (json.RawMessage, *Redirect, error) {
	res := c.gateway.Do(ctx, out)

	switch res.Outcome {
	case gateway.OutcomeRedirect:
		return nil, newRedirect(res.Redirect), nil

	case gateway.OutcomeFailed:
		backendErr := &BackendError{
			StatusCode: res.Failure.StatusCode,
			Message:    res.Failure.Message,
		}
		switch {
		case res.Failure.Mismatch:
			backendErr.Err = ErrProtocolMismatch
		case res.Failure.StatusCode == http.StatusNotFound:
			backendErr.Err = ErrNotFound
		}
		c.captureFailure(ctx, out, backendErr)
		return nil, nil, backendErr

	default:
		return res.Payload, nil, nil
	}
}

// executeList runs a request against a list endpoint and normalizes the
// response envelope.
func (c *Client) executeList(ctx context.Context, out *request.Outbound) (*envelope.List, *Redirect, error) {
	payload, redirect, err := c.execute(ctx, out)
	if redirect != nil || err != nil {
		return nil, redirect, err
	}
	return envelope.NormalizeList(payload), nil, nil
}

// captureFailure reports a backend failure to Sentry, if configured.
func (c *Client) captureFailure(ctx context.Context, out *request.Outbound, backendErr *BackendError) {
	if c.options.SentryDSN == "" && c.options.SentryOptions == nil {
		return
	}

	capture := func(scope *sentry.Scope, capturer func(error) *sentry.EventID) {
		scope.SetTag("backend.status", http.StatusText(backendErr.StatusCode))
		scope.SetContext("backend", map[string]interface{}{
			"method": out.Method,
			"url":    out.URL,
			"status": backendErr.StatusCode,
		})
		capturer(backendErr)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			capture(scope, hub.CaptureException)
		})
	} else {
		sentry.WithScope(func(scope *sentry.Scope) {
			capture(scope, sentry.CaptureException)
		})
	}
}
