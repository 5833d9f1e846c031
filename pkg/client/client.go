// Package client talks to the remote articles collection over HTTP.
package client

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/irfansharif/simplepedia/pkg/article"
)

const (
	// DefaultEndpoint is the collection root of a locally running server.
	DefaultEndpoint = "http://localhost:8080/api/articles/"
	defaultTimeout  = 30 * time.Second
	maxErrorBody    = 64 << 10
)

// Remote is the capability set the application needs from the collection.
// Writes are all-or-nothing: on error nothing should be assumed to have
// changed.
type Remote interface {
	List(ctx context.Context) ([]article.Article, error)
	Create(ctx context.Context, draft article.Article) (article.Article, error)
	Update(ctx context.Context, a article.Article) (article.Article, error)
	Remove(ctx context.Context, id int64) error
}

// Client is the HTTP implementation of Remote.
type Client struct {
	client  *http.Client
	timeout *time.Duration
	base    *url.URL
	log     zerolog.Logger
}

var _ Remote = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTimeout sets the per-request timeout. Zero means none. A client passed
// to WithHTTPClient is copied rather than modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = &d }
}

// WithLogger logs each request at debug level.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client for the collection rooted at endpoint, e.g.
// "http://localhost:8080/api/articles/".
func New(endpoint string, opts ...Option) (*Client, error) {
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	c := &Client{
		client: &http.Client{Timeout: defaultTimeout},
		base:   base,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil {
		hc := *c.client
		hc.Timeout = *c.timeout
		c.client = &hc
	}
	return c, nil
}

// Endpoint returns the collection root.
func (c *Client) Endpoint() string {
	return c.base.String()
}

// List fetches every article stored server-side.
func (c *Client) List(ctx context.Context) ([]article.Article, error) {
	var articles []article.Article
	if err := c.do(ctx, "list", http.MethodGet, 0, nil, &articles); err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []article.Article{}
	}
	return articles, nil
}

// Create posts a new article. Any id on draft is dropped; the server
// assigns one and returns the stored record.
func (c *Client) Create(ctx context.Context, draft article.Article) (article.Article, error) {
	draft.ID = 0
	var created article.Article
	if err := c.do(ctx, "create", http.MethodPost, 0, draft, &created); err != nil {
		return article.Article{}, err
	}
	if !created.Persisted() {
		return article.Article{}, &TransportError{Op: "create", Err: fmt.Errorf("server returned an article without an id")}
	}
	return created, nil
}

// Update replaces the stored record with a's id.
func (c *Client) Update(ctx context.Context, a article.Article) (article.Article, error) {
	if !a.Persisted() {
		return article.Article{}, &ValidationError{
			Op:      "update",
			Code:    codeIDMismatch,
			Message: "article has no id",
		}
	}
	var updated article.Article
	if err := c.do(ctx, "update", http.MethodPut, a.ID, a, &updated); err != nil {
		return article.Article{}, err
	}
	if updated.ID != a.ID {
		return article.Article{}, &TransportError{
			Op:  "update",
			Err: fmt.Errorf("server returned article %d for %d", updated.ID, a.ID),
		}
	}
	return updated, nil
}

// Remove deletes the article with the given id.
func (c *Client) Remove(ctx context.Context, id int64) error {
	return c.do(ctx, "remove", http.MethodDelete, id, nil, nil)
}

func (c *Client) resource(id int64) string {
	if id == 0 {
		return c.base.String()
	}
	return c.base.JoinPath(strconv.FormatInt(id, 10)).String()
}

func (c *Client) do(ctx context.Context, op, method string, id int64, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resource(id), body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("op", op).Str("request_id", reqID).Msg("Request failed")
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("op", op).
		Str("method", method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("request_id", reqID).
		Msg("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		return classify(op, id, resp.StatusCode, eb, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
