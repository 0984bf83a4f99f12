// Package api implements the REST client for the sweetshop backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adesaini/sweetshop-client/internal/errs"
	"github.com/adesaini/sweetshop-client/internal/model"
)

// TokenSource yields the bearer token for authenticated requests. An empty
// token sends the request unauthenticated; the backend rejects it.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a plain function to a TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// Client calls the sweetshop backend over HTTP.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
	log    *zap.Logger
}

// New constructs a Client for the given base URL. tokens may be nil for a
// client that only performs unauthenticated calls.
func New(base string, timeout time.Duration, tokens TokenSource, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: timeout},
		tokens: tokens,
		log:    log,
	}
}

// Login exchanges credentials for an identity plus bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (model.Session, error) {
	in := map[string]string{"email": email, "password": password}
	var out model.Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, &out); err != nil {
		return model.Session{}, err
	}
	return out, nil
}

// Register creates an account. It does not establish a session; callers log
// in separately.
func (c *Client) Register(ctx context.Context, username, email, password string, role model.Role) error {
	in := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
		"role":     string(role),
	}
	return c.do(ctx, http.MethodPost, "/api/auth/register", in, nil)
}

// ListSweets fetches the entire catalog.
func (c *Client) ListSweets(ctx context.Context) ([]model.Sweet, error) {
	var out []model.Sweet
	if err := c.do(ctx, http.MethodGet, "/api/sweets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSweet fetches a single sweet by id.
func (c *Client) GetSweet(ctx context.Context, id int64) (model.Sweet, error) {
	var out model.Sweet
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/sweets/%d", id), nil, &out); err != nil {
		return model.Sweet{}, err
	}
	return out, nil
}

// CreateSweet adds a new sweet and returns the created record.
func (c *Client) CreateSweet(ctx context.Context, in model.SweetInput) (model.Sweet, error) {
	var out model.Sweet
	if err := c.do(ctx, http.MethodPost, "/api/sweets", in, &out); err != nil {
		return model.Sweet{}, err
	}
	return out, nil
}

// UpdateSweet replaces the mutable fields of a sweet.
func (c *Client) UpdateSweet(ctx context.Context, id int64, in model.SweetInput) (model.Sweet, error) {
	var out model.Sweet
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/sweets/%d", id), in, &out); err != nil {
		return model.Sweet{}, err
	}
	return out, nil
}

// DeleteSweet removes a sweet from the catalog.
func (c *Client) DeleteSweet(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/sweets/%d", id), nil, nil)
}

// RestockSweet increases a sweet's quantity by qty units.
func (c *Client) RestockSweet(ctx context.Context, id, qty int64) (model.Sweet, error) {
	var out model.Sweet
	path := fmt.Sprintf("/api/sweets/%d/restock?qty=%d", id, qty)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return model.Sweet{}, err
	}
	return out, nil
}

// PurchaseSweet decreases a sweet's quantity by qty units.
func (c *Client) PurchaseSweet(ctx context.Context, id, qty int64) (model.Sweet, error) {
	var out model.Sweet
	path := fmt.Sprintf("/api/sweets/%d/purchase?qty=%d", id, qty)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return model.Sweet{}, err
	}
	return out, nil
}

// SearchSweets fetches the subset matching the filter. Empty fields are
// left out of the query entirely.
func (c *Client) SearchSweets(ctx context.Context, f model.SearchFilter) ([]model.Sweet, error) {
	q := url.Values{}
	if f.Name != "" {
		q.Set("name", f.Name)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.MinPrice != nil {
		q.Set("minPrice", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	path := "/api/sweets/search"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []model.Sweet
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do executes a single request, attaching the bearer token when one exists,
// and decodes the response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err := statusError(resp)
		c.log.Debug("backend call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// statusError maps a non-2xx response onto a sentinel, keeping the server's
// message when it sent one.
func statusError(resp *http.Response) error {
	msg := serverMessage(resp.Body)

	var base error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		base = errs.ErrBadRequest
	case http.StatusUnauthorized:
		base = errs.ErrUnauthorized
	case http.StatusForbidden:
		base = errs.ErrForbidden
	case http.StatusNotFound:
		base = errs.ErrNotFound
	case http.StatusConflict:
		base = errs.ErrConflict
	default:
		if msg != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if msg != "" {
		return fmt.Errorf("%w: %s", base, msg)
	}
	return base
}

// serverMessage extracts the backend's error text, which arrives as either
// {"message": ...} or {"error": ...}.
func serverMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(b) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
