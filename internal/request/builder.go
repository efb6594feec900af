// Package request constructs outbound HTTP requests for the gateway: base
// URL normalization, ordered query encoding from typed filters, JSON and
// multipart bodies. It performs no I/O.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edhire/dashgate-go/internal/types"
)

// ErrInvalidBaseURL is returned when the operator-supplied base URL is
// empty or unparsable. This is a fatal configuration error and must
// surface before any network call.
var ErrInvalidBaseURL = errors.New("invalid API base URL")

// Param is one query parameter. Params are encoded in slice order so that
// identical filters always produce identical URLs.
type Param struct {
	Key   string
	Value string
}

// StringParam returns a single-element param slice, or nil when the value
// is empty. Absent filters are omitted from the query string, never sent
// as empty.
func StringParam(key, value string) []Param {
	if value == "" {
		return nil
	}
	return []Param{{Key: key, Value: value}}
}

// IntParam behaves like StringParam for positive integers. Pages, page
// sizes and entity IDs are all 1-based, so zero means absent.
func IntParam(key string, value int) []Param {
	if value <= 0 {
		return nil
	}
	return []Param{{Key: key, Value: strconv.Itoa(value)}}
}

// Outbound is a fully built request, created fresh per call and never
// reused.
type Outbound struct {
	Method      string
	URL         string
	Header      http.Header
	Body        []byte
	ContentType string
}

// HTTPRequest materializes the outbound request with the given context.
func (o *Outbound) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body *bytes.Reader
	if o.Body != nil {
		body = bytes.NewReader(o.Body)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, o.Method, o.URL, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	for k, vs := range o.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if o.ContentType != "" {
		req.Header.Set("Content-Type", o.ContentType)
	}
	return req, nil
}

// Builder builds outbound requests against one normalized base URL.
type Builder struct {
	base string
}

// NewBuilder validates and normalizes the base URL. The URL is
// operator-supplied and easy to misconfigure, so surrounding whitespace
// and duplicate trailing slashes are stripped before any concatenation.
func NewBuilder(rawBase string) (*Builder, error) {
	base, err := NormalizeBaseURL(rawBase)
	if err != nil {
		return nil, err
	}
	return &Builder{base: base}, nil
}

// NormalizeBaseURL trims and validates an operator-supplied base URL.
func NormalizeBaseURL(raw string) (string, error) {
	base := strings.TrimSpace(raw)
	base = strings.TrimRight(base, "/")
	if base == "" {
		return "", errors.Wrap(ErrInvalidBaseURL, "base URL is empty")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidBaseURL, "unparsable base URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.Wrapf(ErrInvalidBaseURL, "base URL %q must be http or https", raw)
	}
	if u.Host == "" {
		return "", errors.Wrapf(ErrInvalidBaseURL, "base URL %q has no host", raw)
	}
	return base, nil
}

// BaseURL returns the normalized base URL.
func (b *Builder) BaseURL() string {
	return b.base
}

// Get builds a GET request for path with the given ordered params.
func (b *Builder) Get(path string, params []Param) *Outbound {
	return &Outbound{
		Method: http.MethodGet,
		URL:    b.url(path, params),
		Header: defaultHeader(),
	}
}

// Delete builds a DELETE request for path with the given ordered params.
func (b *Builder) Delete(path string, params []Param) *Outbound {
	return &Outbound{
		Method: http.MethodDelete,
		URL:    b.url(path, params),
		Header: defaultHeader(),
	}
}

// JSON builds a request carrying a JSON body.
func (b *Builder) JSON(method, path string, payload interface{}) (*Outbound, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request body")
	}
	return &Outbound{
		Method:      method,
		URL:         b.url(path, nil),
		Header:      defaultHeader(),
		Body:        body,
		ContentType: "application/json",
	}, nil
}

// Multipart builds a request whose body is the multipart encoding of form
// under the given field spec.
func (b *Builder) Multipart(method, path string, spec MultipartSpec, form Form) (*Outbound, error) {
	body, contentType, err := spec.Encode(form)
	if err != nil {
		return nil, err
	}
	return &Outbound{
		Method:      method,
		URL:         b.url(path, nil),
		Header:      defaultHeader(),
		Body:        body,
		ContentType: contentType,
	}, nil
}

func (b *Builder) url(path string, params []Param) string {
	u := b.base + path
	if qs := EncodeParams(params); qs != "" {
		u += "?" + qs
	}
	return u
}

// EncodeParams encodes params in slice order, skipping empty values.
func EncodeParams(params []Param) string {
	var sb strings.Builder
	for _, p := range params {
		if p.Value == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}

func defaultHeader() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("User-Agent", types.UserAgent)
	h.Set("X-Request-Id", uuid.New().String())
	return h
}
