// Package client is the HTTP client for the bookstore API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "http://localhost:8080/api/v1"

	maxResponseBytes = 8 << 20
)

type Config struct {
	BaseURL           string        `json:"base_url" yaml:"base_url" env:"VINABOOK_API_URL"`
	Timeout           time.Duration `json:"timeout" yaml:"timeout" env:"VINABOOK_API_TIMEOUT"`
	RequestsPerSecond float64       `json:"requests_per_second" yaml:"requests_per_second" env:"VINABOOK_API_RPS"`
	Burst             int           `json:"burst" yaml:"burst" env:"VINABOOK_API_BURST"`
}

// TokenSource yields the bearer token for the next request. An empty token
// means the request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(log *logrus.Entry) Option {
	return func(c *Client) { c.log = log }
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	metrics    *Metrics
	log        *logrus.Entry
}

func New(cfg Config, tokens TokenSource, opts ...Option) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		limiter:    rate.NewLimiter(limit, burst),
		log:        logrus.NewEntry(logrus.StandardLogger()),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FormFile is a file part of a multipart request.
type FormFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Form is a multipart/form-data body.
type Form struct {
	Fields map[string]string
	Files  []FormFile
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, "")
}

func (c *Client) Post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	return c.doJSON(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body interface{}) ([]byte, error) {
	return c.doJSON(ctx, http.MethodPut, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, path, nil, "")
}

// Upload sends form as multipart/form-data with the given method.
func (c *Client) Upload(ctx context.Context, method, path string, form Form) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range form.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	for _, f := range form.Files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("failed to copy form file %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	return c.do(ctx, method, path, &buf, w.FormDataContentType())
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	if body == nil {
		return c.do(ctx, method, path, nil, "")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	return c.do(ctx, method, path, bytes.NewReader(payload), "application/json")
}

// do issues exactly one request. Non-2xx responses and transport failures
// are returned as *Error.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	route := routeOf(path)
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.observe(method, route, start, &Error{Message: err.Error(), Err: err})
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, c.observe(method, route, start, &Error{Message: "create request: " + err.Error(), Err: err})
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, c.observe(method, route, start, &Error{Message: "read token: " + err.Error(), Err: err})
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.observe(method, route, start, &Error{Message: err.Error(), Err: err})
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.observe(method, route, start, &Error{Message: "read response body: " + err.Error(), Err: err})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.observe(method, route, start, &Error{
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, data),
		})
	}

	c.record(method, route, strconv.Itoa(resp.StatusCode), start)
	c.log.WithFields(logrus.Fields{
		"method": method,
		"route":  route,
		"status": resp.StatusCode,
	}).Debug("api request")

	return data, nil
}

func (c *Client) observe(method, route string, start time.Time, apiErr *Error) error {
	status := "error"
	if apiErr.Status != 0 {
		status = strconv.Itoa(apiErr.Status)
	}
	c.record(method, route, status, start)

	c.log.WithFields(logrus.Fields{
		"method": method,
		"route":  route,
		"status": apiErr.Status,
	}).WithError(apiErr).Debug("api request failed")

	return apiErr
}

func (c *Client) record(method, route, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.requests.WithLabelValues(method, route, status).Inc()
	c.metrics.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

func errorMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "message"); msg.Exists() && msg.String() != "" {
			return msg.String()
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 512 && !gjson.ValidBytes(body) {
		return text
	}

	return http.StatusText(status)
}

var staticSegments = map[string]bool{
	"auth": true, "login": true, "register": true,
	"cart": true, "pay": true,
	"book": true, "label": true, "order": true, "user": true,
	"pagination": true, "get-all": true, "get-by-id": true,
}

// routeOf collapses identifiers in path so metrics labels stay bounded.
func routeOf(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		if s != "" && !staticSegments[s] {
			segments[i] = "{id}"
		}
	}

	return "/" + strings.Join(segments, "/")
}
