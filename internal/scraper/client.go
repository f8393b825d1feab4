// Package scraper talks to the browser-automation sidecar that performs the
// actual page navigation for one site. The worker core treats it as an
// opaque execute collaborator.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// CaptchaError reports that the site presented a captcha challenge instead
// of data. It is terminal for the job but not a worker fault.
type CaptchaError struct {
	URL string
}

func (e *CaptchaError) Error() string {
	return "captcha challenge encountered, solve it at " + e.URL
}

// ChallengeURL returns the page where the challenge can be solved
func (e *CaptchaError) ChallengeURL() string {
	return e.URL
}

// Client runs scrape operations against one sidecar endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for one site's sidecar endpoint
func NewClient(endpoint string, requestTimeout time.Duration, logger *slog.Logger) *Client {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Minute
	}
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

type runRequest struct {
	Operation string            `json:"operation"`
	Params    map[string]string `json:"params"`
}

type runResponse struct {
	Status       string          `json:"status"`
	Payload      json.RawMessage `json:"payload"`
	Rows         int             `json:"rows"`
	Error        string          `json:"error"`
	ChallengeURL string          `json:"challenge_url"`
}

// Run executes one operation on the sidecar and returns its payload and row
// count. A captcha response comes back as *CaptchaError.
func (c *Client) Run(ctx context.Context, operation string, params map[string]string) (json.RawMessage, int, error) {
	body, err := json.Marshal(runRequest{
		Operation: operation,
		Params:    params,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Dispatching scrape operation",
		slog.String("operation", operation),
		slog.String("endpoint", c.endpoint),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("scrape request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read scrape response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("scrape sidecar returned status %d: %s", resp.StatusCode, string(raw))
	}

	var out runResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, 0, fmt.Errorf("failed to decode scrape response: %w", err)
	}

	switch out.Status {
	case "captcha_required":
		return nil, 0, &CaptchaError{URL: out.ChallengeURL}
	case "failed":
		return nil, 0, fmt.Errorf("scrape operation %s failed: %s", operation, out.Error)
	}

	return out.Payload, out.Rows, nil
}
