// Package assess is the client side of the assessment service. Its contract
// is error-free: any transport failure, non-200 status or malformed body is
// absorbed into the fixed degraded-mode record, so callers always get a
// well-formed assessment and never see an exception-style failure.
package assess

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"qrshield/internal/models"
)

// Client calls POST /api/analyze on the assessment service. One network call
// per invocation; no caching, no retry. No request timeout is configured
// beyond the transport default, matching the service contract (known gap: a
// hung backend holds the caller's busy state).
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

// WithToken sets the bearer token sent to the service.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Assess submits url for analysis. The returned assessment is either the
// service verdict or the degraded-mode record; the two are deliberately
// indistinguishable at the type level.
func (c *Client) Assess(ctx context.Context, url string) models.Assessment {
	body, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return models.DegradedAssessment()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze", bytes.NewReader(body))
	if err != nil {
		return models.DegradedAssessment()
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("assessment request failed", "error", err)
		return models.DegradedAssessment()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("assessment service returned error status", "status", resp.StatusCode)
		return models.DegradedAssessment()
	}

	var assessment models.Assessment
	if err := json.NewDecoder(resp.Body).Decode(&assessment); err != nil {
		c.logger.Warn("assessment response malformed", "error", err)
		return models.DegradedAssessment()
	}
	return assessment
}
