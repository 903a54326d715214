// Package users is the HTTP client of the users REST resource.
//
// Every call is a single attempt bound to its context. Non-2xx answers
// become *errors.RemoteError (or *errors.NotFoundError for requests that
// address one record), network and decode failures become
// *errors.TransportError.
package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"users-console/internal/metrics"
	pkgerrors "users-console/pkg/errors"
	"users-console/pkg/logger"
)

// ErrInvalidPageRequest is returned by ListPage for a negative page or a non-positive size.
var ErrInvalidPageRequest = errors.New("users: page must be >= 0 and size > 0")

var (
	errNullBody     = errors.New("expected a JSON value, got null")
	errTrailingData = errors.New("unexpected data after JSON value")
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 64 << 10

const defaultTimeout = 15 * time.Second

// User is a record as stored by the server.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserInput is the payload of create and update. It never carries an id.
type UserInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PageResult is one page as returned by GET {base}/page.
type PageResult struct {
	Content       []User `json:"content"`
	TotalElements int64  `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
	Number        int    `json:"number"`
	Size          int    `json:"size"`
}

// Client talks to the users resource at a fixed base URL.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds every request. It applies to a copy of the HTTP client,
// so a client passed with WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for per-request logging.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a client for the collection at baseURL (e.g. http://localhost:8080/api/users).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("users: invalid base url %q", baseURL)
	}

	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// ListAll returns every user.
func (c *Client) ListAll(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.do(ctx, "list", http.MethodGet, c.base, nil, false, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, pkgerrors.NewTransportError("list", errNullBody)
	}
	return out, nil
}

// GetByID returns one user. Any non-2xx answer is reported as *errors.NotFoundError.
func (c *Client) GetByID(ctx context.Context, id int64) (*User, error) {
	var out *User
	err := c.do(ctx, "get", http.MethodGet, c.itemURL(id), nil, true, &out)
	if err != nil {
		var remote *pkgerrors.RemoteError
		if errors.As(err, &remote) {
			return nil, notFound(id, remote.Body)
		}
		return nil, err
	}
	if out == nil {
		return nil, pkgerrors.NewTransportError("get", errNullBody)
	}
	return out, nil
}

// Create posts the batch and returns the created users in submission order.
func (c *Client) Create(ctx context.Context, in []UserInput) ([]User, error) {
	var out []User
	if err := c.do(ctx, "create", http.MethodPost, c.base, in, false, &out); err != nil {
		return nil, err
	}
	if len(out) != len(in) {
		return nil, pkgerrors.NewTransportError("create", fmt.Errorf("sent %d records, server returned %d", len(in), len(out)))
	}
	return out, nil
}

// Update replaces name and email of user id. The returned record is authoritative.
func (c *Client) Update(ctx context.Context, id int64, in UserInput) (*User, error) {
	var out *User
	if err := c.do(ctx, "update", http.MethodPut, c.itemURL(id), in, true, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, pkgerrors.NewTransportError("update", errNullBody)
	}
	return out, nil
}

// DeleteByID removes user id.
func (c *Client) DeleteByID(ctx context.Context, id int64) error {
	return c.do(ctx, "delete", http.MethodDelete, c.itemURL(id), nil, true, nil)
}

// ListPage returns one zero-based page. Arguments are checked before any I/O.
func (c *Client) ListPage(ctx context.Context, page, size int) (*PageResult, error) {
	if page < 0 || size <= 0 {
		return nil, ErrInvalidPageRequest
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var out *PageResult
	if err := c.do(ctx, "page", http.MethodGet, c.base+"/page?"+q.Encode(), nil, false, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, pkgerrors.NewTransportError("page", errNullBody)
	}
	if out.Content == nil {
		out.Content = []User{}
	}
	return out, nil
}

func (c *Client) itemURL(id int64) string {
	return c.base + "/" + strconv.FormatInt(id, 10)
}

func notFound(id int64, body string) error {
	msg := body
	if msg == "" {
		msg = fmt.Sprintf("user %d not found", id)
	}
	return pkgerrors.NewNotFoundError("user", msg)
}

// do performs one request. A 404 on an id-addressed request maps to *errors.NotFoundError.
// A nil out means no body is expected.
func (c *Client) do(ctx context.Context, op, method, target string, in any, byID bool, out any) (err error) {
	start := time.Now()
	log := logger.WithContext(ctx, c.log).With(zap.String("op", op), zap.String("method", method), zap.String("url", target))
	defer func() {
		metrics.ClientRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		metrics.ClientRequestsTotal.WithLabelValues(op, outcome(err)).Inc()
		if err != nil {
			log.Warn("users api call failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
			return
		}
		log.Debug("users api call", zap.Duration("elapsed", time.Since(start)))
	}()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return pkgerrors.NewTransportError(op, fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return pkgerrors.NewTransportError(op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logger.GetRequestID(ctx); id != "" {
		req.Header.Set(logger.RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.NewTransportError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			return pkgerrors.NewTransportError(op, fmt.Errorf("read error body: %w", readErr))
		}
		if byID && resp.StatusCode == http.StatusNotFound {
			return pkgerrors.NewNotFoundError("user", string(raw))
		}
		return pkgerrors.NewRemoteError(op, resp.StatusCode, string(raw))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := decodeOne(resp.Body, out); err != nil {
		return pkgerrors.NewTransportError(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// decodeOne decodes exactly one JSON value from r. Anything but whitespace after it is an error.
func decodeOne(r io.Reader, out any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(out); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errTrailingData
	}
	return nil
}

func outcome(err error) string {
	var (
		notFound  *pkgerrors.NotFoundError
		remote    *pkgerrors.RemoteError
		transport *pkgerrors.TransportError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &remote):
		return "remote_error"
	case errors.As(err, &transport):
		return "transport_error"
	default:
		return "error"
	}
}
