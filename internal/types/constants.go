package types

import "time"

const (
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second

	// UserAgent is the user agent string
	UserAgent = "dashgate-go/1.0.0"

	// LoginPath is where unauthenticated users are sent.
	LoginPath = "/login/"

	// RedirectParam carries the original path on the login URL so the
	// login flow can return the user to where they were.
	RedirectParam = "redirect"

	// AccessTokenCookie and RefreshTokenCookie are the session cookie
	// names shared with the login flow. They are always cleared as a
	// pair, never individually.
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)
