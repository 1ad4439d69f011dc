package palpa

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/pantti/internal/logging"
)

const (
	// DefaultBaseURL is the deposit endpoint, reverse engineered from the
	// Palpa mobile app. It can break whenever Palpa decides so.
	DefaultBaseURL = "https://extra.palpa.fi/api/v1.0/deposit/"

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// maxBodySize caps how much of a response is read
	maxBodySize = 64 * 1024
)

// Client queries the deposit lookup API
type Client struct {
	// BaseURL is prefixed to the barcode to form the request URL
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// UserAgent is sent with every request when non-empty
	UserAgent string
}

// NewClient creates a lookup client for the given base URL
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// URL returns the request URL for a barcode
func (c *Client) URL(barcode string) string {
	return c.BaseURL + url.PathEscape(barcode)
}

// Lookup fetches the deposit status of a barcode
func (c *Client) Lookup(ctx context.Context, barcode string) (Response, error) {
	started := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(barcode), nil)
	if err != nil {
		return Response{}, NewNetworkError("failed to create GET request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Response{}, NewNetworkError("GET request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Response{}, NewNetworkError("failed to read response body", err)
	}

	result, err := Decode(body)
	if err != nil {
		return Response{}, err
	}

	logging.Info("Lookup completed",
		zap.String("barcode", barcode),
		zap.Int("status", result.Status),
		zap.Duration("elapsed", time.Since(started)),
	)

	return result, nil
}
