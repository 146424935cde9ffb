// Package ads is a typed gateway over the Facebook Marketing Graph API:
// campaign-tree listing and mutation, account insights, and classification
// of upstream failures.
package ads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://graph.facebook.com"

// HTTPClient lets tests substitute the transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a minimal Graph API client. One request per call, no retries;
// failures surface as classified *APIError values.
type Client struct {
	baseURL     string
	apiVersion  string
	accessToken string
	httpc       HTTPClient
	logger      *slog.Logger
	now         func() time.Time
}

// NewClient creates a gateway client.
func NewClient(apiVersion, accessToken string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:     defaultBaseURL,
		apiVersion:  apiVersion,
		accessToken: accessToken,
		httpc:       &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
		now:         time.Now,
	}
}

// SetClock overrides the time source, for deterministic window tests.
func (c *Client) SetClock(now func() time.Time) { c.now = now }

// SetBaseURL overrides the API endpoint, for tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimRight(u, "/") }

// SetHTTPClient overrides the transport, for tests.
func (c *Client) SetHTTPClient(h HTTPClient) { c.httpc = h }

// graphError is the Graph API error envelope.
type graphError struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
	} `json:"error"`
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.apiVersion, strings.TrimLeft(path, "/"))
}

// getJSON performs a GET with the access token appended and decodes the
// result, translating error envelopes into *APIError.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path)+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, v)
}

// postForm performs a mutating POST with form-encoded fields.
func (c *Client) postForm(ctx context.Context, path string, form url.Values) error {
	form.Set("access_token", c.accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("ads API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read ads API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ge graphError
		if jsonErr := json.Unmarshal(body, &ge); jsonErr == nil && (ge.Error.Code != 0 || ge.Error.Message != "") {
			apiErr := newAPIError(ge.Error.Code, ge.Error.ErrorSubcode, ge.Error.Message)
			c.logger.Warn("ads API error",
				"kind", apiErr.Kind.String(),
				"code", apiErr.Code,
				"subcode", apiErr.Subcode,
			)
			return apiErr
		}
		return fmt.Errorf("ads API returned status %d", resp.StatusCode)
	}

	if v == nil {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode ads API response: %w", err)
	}
	return nil
}
