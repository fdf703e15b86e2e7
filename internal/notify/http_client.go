package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single notification request.
const DefaultTimeout = 10 * time.Second

// StatusError is a non-2xx response from the notification service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("notification service status %d: %s", e.StatusCode, e.Body)
}

// HTTPClient implements NotificationService against a REST API exposing
// POST {endpoint}/push and POST {endpoint}/email. Requests are not retried
// so a slow success is never delivered twice.
type HTTPClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// Compile-time interface check.
var _ NotificationService = (*HTTPClient)(nil)

// HTTPOption configures HTTPClient.
type HTTPOption func(*HTTPClient)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) HTTPOption {
	return func(c *HTTPClient) {
		c.apiKey = key
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a REST notification client.
func NewHTTPClient(endpoint string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type pushRequest struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

type emailRequest struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html"`
}

// SendPush posts a push notification.
func (c *HTTPClient) SendPush(ctx context.Context, userID, title, body string) error {
	return c.post(ctx, "/push", pushRequest{UserID: userID, Title: title, Body: body})
}

// SendEmail posts an email notification.
func (c *HTTPClient) SendEmail(ctx context.Context, address, subject, htmlBody string) error {
	return c.post(ctx, "/email", emailRequest{To: address, Subject: subject, HTMLBody: htmlBody})
}

func (c *HTTPClient) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}
