// Package api is the single chokepoint for every call to the research
// assistant API. It attaches the session cookie, classifies responses and
// reports each failure to the user exactly once.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/PaperPilot/internal/notify"
)

var emptyObject = json.RawMessage("{}")

// Notifier receives the single user-facing message of a failed call.
type Notifier interface {
	Error(message string) notify.Notification
}

// Client talks JSON to the API base URL.
type Client struct {
	base      *url.URL
	http      *http.Client
	jar       *persistentJar
	userAgent string
	notifier  Notifier
	logger    *logrus.Logger

	mu             sync.Mutex
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets a per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithNotifier sets where failure messages go.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithCookieStore persists the session cookie across process restarts.
func WithCookieStore(s CookieStore) Option {
	return func(c *Client) { c.jar.store = s }
}

// New creates a Client for the given base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	jar, err := newPersistentJar(base)
	if err != nil {
		return nil, err
	}

	c := &Client{
		base:      base,
		jar:       jar,
		http:      &http.Client{Jar: jar},
		userAgent: "PaperPilot/1.0",
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	jar.logger = c.logger
	if err := jar.restore(); err != nil {
		c.logger.WithError(err).Warn("could not restore session cookies")
	}
	return c, nil
}

// SetUnauthorizedHandler registers the side effect run on every 401,
// before the call fails with ErrUnauthorized.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Call performs a request and returns the raw JSON body. A 2xx response
// with no body or a non-JSON content type yields an empty object.
func (c *Client) Call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, method, path, body, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = emptyObject
	}
	return raw, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.WithFields(logrus.Fields{"method": method, "path": path}).Debug("api request")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Superseded or cancelled by the caller: nothing to report.
			return ctx.Err()
		}
		return c.fail(&RequestError{Method: method, Path: path, Message: err.Error(), Transport: true, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		c.logger.WithFields(logrus.Fields{"method": method, "path": path}).Warn("session rejected by API")
		c.unauthorized()
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(&RequestError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: errorMessage(resp),
		})
	}

	if !isJSON(resp.Header.Get("Content-Type")) {
		io.Copy(io.Discard, resp.Body)
		setEmpty(out)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return c.fail(&RequestError{Method: method, Path: path, Message: err.Error(), Transport: true, Err: err})
	}
	if len(bytes.TrimSpace(data)) == 0 {
		setEmpty(out)
		return nil
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return c.fail(&RequestError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: "invalid response: " + err.Error(),
			Err:     err,
		})
	}
	return nil
}

func (c *Client) fail(e *RequestError) error {
	c.logger.WithError(e).Warn("api call failed")
	if c.notifier != nil {
		c.notifier.Error("Request failed: " + e.Message)
	}
	return e
}

func (c *Client) unauthorized() {
	c.jar.forget()
	c.mu.Lock()
	fn := c.onUnauthorized
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func setEmpty(out any) {
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = emptyObject
	}
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// errorMessage extracts the server's message from an error response, or
// falls back to the status code.
func errorMessage(resp *http.Response) string {
	fallback := fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
	if !isJSON(resp.Header.Get("Content-Type")) {
		io.Copy(io.Discard, resp.Body)
		return fallback
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return fallback
	}
	if payload.Error != "" {
		return payload.Error
	}
	if payload.Message != "" {
		return payload.Message
	}
	return fallback
}
