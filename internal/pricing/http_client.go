package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// ErrNoEndpoint is returned when a search is issued for a provider
// whose endpoint was not configured.
var ErrNoEndpoint = errors.New("pricing endpoint not configured")

// StatusError is a non-retryable HTTP failure from the pricing gateway.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pricing gateway status %d: %s", e.StatusCode, e.Body)
}

// HTTPClient implements FlightPricingService and HotelPricingService
// against a JSON pricing gateway.
type HTTPClient struct {
	flightEndpoint string
	hotelEndpoint  string
	apiKey         string
	client         *http.Client
	maxRetries     int
	retryDelay     time.Duration
	maxDelay       time.Duration
	backoffMult    float64
}

// Compile-time interface checks.
var (
	_ FlightPricingService = (*HTTPClient)(nil)
	_ HotelPricingService  = (*HTTPClient)(nil)
)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) ClientOption {
	return func(c *HTTPClient) {
		c.apiKey = key
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a pricing client. Either endpoint may be empty,
// in which case searches of that kind fail with ErrNoEndpoint.
func NewHTTPClient(flightEndpoint, hotelEndpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		flightEndpoint: flightEndpoint,
		hotelEndpoint:  hotelEndpoint,
		client:         &http.Client{Timeout: DefaultTimeout},
		maxRetries:     DefaultMaxRetries,
		retryDelay:     DefaultRetryDelay,
		maxDelay:       DefaultMaxDelay,
		backoffMult:    DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchFlights posts the query to the flight endpoint.
func (c *HTTPClient) SearchFlights(ctx context.Context, q FlightQuery) (*FlightSearchResult, error) {
	if c.flightEndpoint == "" {
		return nil, ErrNoEndpoint
	}
	var result FlightSearchResult
	if err := c.post(ctx, c.flightEndpoint, q, &result); err != nil {
		return nil, fmt.Errorf("search flights: %w", err)
	}
	return &result, nil
}

// SearchHotels posts the query to the hotel endpoint.
func (c *HTTPClient) SearchHotels(ctx context.Context, q HotelQuery) (*HotelSearchResult, error) {
	if c.hotelEndpoint == "" {
		return nil, ErrNoEndpoint
	}
	var result HotelSearchResult
	if err := c.post(ctx, c.hotelEndpoint, q, &result); err != nil {
		return nil, fmt.Errorf("search hotels: %w", err)
	}
	return &result, nil
}

// post sends a JSON request with retries and exponential backoff.
// Transport failures, 429 and 5xx are retried; other statuses are not.
func (c *HTTPClient) post(ctx context.Context, endpoint string, payload, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
