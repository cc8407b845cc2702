package comments

import (
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
)

const (
	defaultTimeout = 8 * time.Second
	listPath       = "data"
	deletePath     = "delete-comment"
	createPath     = "data"
	maxErrorBody   = 256
)

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to the remote comment endpoint. When constructed without a
// base URL it serves a logged-out fake so the page renders in development.
type Client struct {
	baseURL string
	http    HTTPClient
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// NewClient constructs a comment endpoint client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type cookieCtxKey struct{}

// WithCookies attaches the browser's raw Cookie header to ctx so upstream
// calls are made on behalf of the same viewer.
func WithCookies(ctx context.Context, raw string) context.Context {
	if strings.TrimSpace(raw) == "" {
		return ctx
	}
	return context.WithValue(ctx, cookieCtxKey{}, raw)
}

func cookiesFrom(ctx context.Context) string {
	v, _ := ctx.Value(cookieCtxKey{}).(string)
	return v
}

// List fetches up to limit comments together with the viewer's auth state.
// The body is decoded regardless of a 4xx status, since the endpoint answers
// anonymous viewers with an error status and a usable payload.
func (c *Client) List(ctx context.Context, limit int) (Response, error) {
	if c == nil || c.baseURL == "" {
		return fakeListResponse(), nil
	}
	endpoint, err := url.JoinPath(c.baseURL, listPath)
	if err != nil {
		return Response{}, err
	}
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, err
	}
	q := req.URL.Query()
	q.Set("numComments", strconv.Itoa(limit))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("comments: list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return Response{}, fmt.Errorf("comments: list status %d: %s", resp.StatusCode, drainError(resp.Body))
	}

	var payload Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if !errors.Is(err, ErrMalformedResponse) {
			err = fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return Response{}, fmt.Errorf("comments: list status %d: %w", resp.StatusCode, err)
	}
	return payload, nil
}

// Delete asks the endpoint to delete the comment with id. The response body is
// not inspected beyond its status.
func (c *Client) Delete(ctx context.Context, id string) error {
	if c == nil || c.baseURL == "" {
		return nil
	}
	return c.postForm(ctx, deletePath, url.Values{"id": {id}})
}

// Create posts a new comment authored by the current viewer. Blank text is
// not sent.
func (c *Client) Create(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if c == nil || c.baseURL == "" {
		return nil
	}
	return c.postForm(ctx, createPath, url.Values{"text-input": {text}})
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) error {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("comments: post %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("comments: post %s status %d: %s", path, resp.StatusCode, drainError(resp.Body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if raw := cookiesFrom(ctx); raw != "" {
		req.Header.Set("Cookie", raw)
	}
	return req, nil
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}
