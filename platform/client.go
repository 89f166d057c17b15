package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/logging"
)

// APIError is a non-success HTTP status returned by the platform.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("platform api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("platform api: status %d: %s", e.StatusCode, e.Message)
}

// ErrorResponse is the JSON error body written by the platform server.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ClientOptions configure a Client.
type ClientOptions struct {
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Client talks to the platform HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

var _ Platform = (*Client)(nil)

// NewClient creates a client for the platform served at baseURL,
// e.g. "http://127.0.0.1:9999".
func NewClient(baseURL string, optFns ...func(o *ClientOptions)) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, core.NewConfigurationError("platform", "BaseURL")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &core.ConfigurationError{Component: "platform", Field: "BaseURL", Message: "must include scheme and host"}
	}

	opts := ClientOptions{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: opts.HTTPClient,
		logger:     logging.OrNoOp(opts.Logger),
	}, nil
}

// Ready implements Platform. Any HTTP answer counts as ready; only
// transport failures are returned.
func (c *Client) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug("platform.ready", "status", resp.StatusCode)
	return nil
}

// RegisterUser implements Platform.
func (c *Client) RegisterUser(ctx context.Context, name string) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodPost, "/api/users/register", map[string]string{"name": name}, &user)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			return nil, fmt.Errorf("register %q: %w", name, core.ErrRegistrationConflict)
		}
		return nil, fmt.Errorf("register %q: %w", name, err)
	}
	return &user, nil
}

// RecentFeed implements Platform.
func (c *Client) RecentFeed(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.do(ctx, http.MethodGet, "/api/posts/recent", nil, &posts); err != nil {
		return nil, fmt.Errorf("recent feed: %w", err)
	}
	return posts, nil
}

// Notifications implements Platform.
func (c *Client) Notifications(ctx context.Context, userID string) ([]Notification, error) {
	var notifications []Notification
	path := "/api/users/" + url.PathEscape(userID) + "/notifications"
	if err := c.do(ctx, http.MethodGet, path, nil, &notifications); err != nil {
		return nil, fmt.Errorf("notifications: %w", err)
	}
	return notifications, nil
}

// ViewThread implements Platform.
func (c *Client) ViewThread(ctx context.Context, postID string) (*Thread, error) {
	var thread Thread
	if err := c.do(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(postID), nil, &thread); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("thread %q: %w", postID, ErrNotFound)
		}
		return nil, fmt.Errorf("thread %q: %w", postID, err)
	}
	return &thread, nil
}

// SubmitPost implements Platform.
func (c *Client) SubmitPost(ctx context.Context, userID, content string) (*Post, error) {
	return c.submit(ctx, SubmitRequest{UserID: userID, Content: content})
}

// SubmitReply implements Platform.
func (c *Client) SubmitReply(ctx context.Context, userID, content, parentID string) (*Post, error) {
	return c.submit(ctx, SubmitRequest{UserID: userID, Content: content, ParentID: parentID})
}

func (c *Client) submit(ctx context.Context, req SubmitRequest) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodPost, "/api/posts", req, &post); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("submit post: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("submit post: %w", err)
	}
	return &post, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		var encoded bytes.Buffer
		if err := json.NewEncoder(&encoded).Encode(payload); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = &encoded
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("platform.request", "method", method, "path", path, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var er ErrorResponse
		if json.Unmarshal(raw, &er) == nil {
			apiErr.Message = er.Error
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
