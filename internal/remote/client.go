// Package remote talks to the transport backend's notification endpoints.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mobilize-transporte/avisos/internal/config"
	"github.com/mobilize-transporte/avisos/internal/domain"
	"github.com/mobilize-transporte/avisos/internal/logging"
	"github.com/mobilize-transporte/avisos/internal/normalize"
	"github.com/mobilize-transporte/avisos/internal/validate"
)

const (
	// DefaultBaseURL is the production backend.
	DefaultBaseURL = "https://backend-mobilize-transporte.onrender.com"
	// DefaultPath is the notification collection path.
	DefaultPath = "/notifications"
	// DefaultRecipient addresses every user.
	DefaultRecipient = "all"

	defaultTimeout = 10 * time.Second
	// Error bodies are only used for messages.
	maxErrorBody = 200
	maxBody      = 4 << 20
)

// ErrEndpointUnavailable is returned when the backend answers 404, meaning
// the notification capability is not deployed.
var ErrEndpointUnavailable = errors.New("notification endpoint unavailable")

// ErrInvalidPayload is returned for a 2xx list response that is not JSON and
// for any response larger than the body limit.
var ErrInvalidPayload = errors.New("invalid notification payload")

// StatusError is a non-2xx response other than 404.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// TokenSource supplies the bearer token. An empty token sends no
// Authorization header.
type TokenSource interface {
	Token() (string, error)
}

// Client is the HTTP client for the notification endpoints.
type Client struct {
	baseURL string
	path    string
	http    *http.Client
	tokens  TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithPath overrides DefaultPath.
func WithPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			c.path = path
		}
	}
}

// WithTokenSource sets where the bearer token comes from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// New creates a Client for baseURL. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    DefaultPath,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a Client from the global configuration.
func NewFromConfig(ts TokenSource) *Client {
	return New(
		config.Get("api_base_url", DefaultBaseURL),
		WithPath(config.Get("notifications_path", DefaultPath)),
		WithTimeout(time.Duration(config.GetInt("request_timeout_seconds", 10))*time.Second),
		WithTokenSource(ts),
	)
}

// Endpoint returns the full notification collection URL.
func (c *Client) Endpoint() string {
	return c.baseURL + c.path
}

// ListNotifications fetches and normalizes the notification list.
// A 404 returns ErrEndpointUnavailable; a 2xx body that is not JSON returns
// ErrInvalidPayload.
func (c *Client) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.Endpoint(), nil)
	if err != nil {
		return nil, err
	}
	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		logging.Info("notification endpoint not implemented by backend", "url", c.Endpoint())
		return nil, ErrEndpointUnavailable
	}
	if status < 200 || status > 299 {
		return nil, statusError(status, body)
	}
	if !json.Valid(body) {
		logging.Warn("non-JSON notification response", "url", c.Endpoint(), "body", truncate(body))
		return nil, fmt.Errorf("%w: response is not JSON", ErrInvalidPayload)
	}
	list := normalize.DecodeBody(body)
	logging.Debug("notifications loaded", "count", len(list))
	return list, nil
}

// PublishRequest is the body of a notification creation request.
type PublishRequest struct {
	Recipient string `json:"recipient" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Body      string `json:"body" validate:"required"`
	Read      *bool  `json:"read,omitempty"`
}

// PublishResult reports whether the backend stored the notification.
type PublishResult struct {
	Saved   bool
	Message string
	// Notification is the stored record when the backend echoed it.
	Notification *domain.Notification
}

// PublishNotification creates a notification. A 404 reports Saved=false
// without an error.
func (c *Client) PublishNotification(ctx context.Context, in PublishRequest) (PublishResult, error) {
	in.Recipient = strings.TrimSpace(in.Recipient)
	if in.Recipient == "" {
		in.Recipient = DefaultRecipient
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	if err := validate.Struct(in); err != nil {
		return PublishResult{}, fmt.Errorf("invalid notification: %w", err)
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return PublishResult{}, fmt.Errorf("encode notification: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return PublishResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return PublishResult{}, err
	}
	if status == http.StatusNotFound {
		logging.Info("notification endpoint not implemented, notification not saved", "url", c.Endpoint())
		return PublishResult{Saved: false, Message: "backend endpoint unavailable"}, nil
	}
	if status < 200 || status > 299 {
		return PublishResult{}, statusError(status, body)
	}

	result := PublishResult{Saved: true, Message: "notification saved"}
	if n, ok := normalize.DecodeRecord(body); ok {
		result.Notification = &n
	}
	return result, nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			logging.Warn("failed to read token, sending unauthenticated request", "error", err)
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	logging.Debug("request", "method", req.Method, "url", req.URL.String())
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > maxBody {
		return 0, nil, fmt.Errorf("%w: response exceeds %d bytes", ErrInvalidPayload, maxBody)
	}
	return resp.StatusCode, body, nil
}

func statusError(status int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(body, &payload) == nil {
		msg = payload.Message
		if msg == "" {
			msg = payload.Error
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	return &StatusError{Code: status, Message: msg}
}

func truncate(body []byte) string {
	s := string(body)
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return s
}
