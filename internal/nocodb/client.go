// Package nocodb implements the paginated record fetcher for the NocoDB v2
// records API.
package nocodb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"nocoview/internal/logging"
	"nocoview/internal/table"
)

// Config holds connection settings for a NocoDB table endpoint.
type Config struct {
	BaseURL  string        // table records endpoint, e.g. http://localhost:8080/api/v2/tables/<id>/records
	APIToken string        // xc-token header value
	PageSize int           // records per page (default 100)
	Timeout  time.Duration // per-request timeout (default 30s)
}

// Client fetches records from a single NocoDB table.
type Client struct {
	baseURL    string
	apiToken   string
	pageSize   int
	httpClient *http.Client
}

// DefaultConfig returns sensible defaults for a local NocoDB instance.
func DefaultConfig(baseURL, apiToken string) Config {
	return Config{
		BaseURL:  baseURL,
		APIToken: apiToken,
		PageSize: 100,
		Timeout:  30 * time.Second,
	}
}

// NewClient creates a new client with custom config.
func NewClient(cfg Config) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		apiToken: cfg.APIToken,
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the configured records endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PageSize returns the configured page size.
func (c *Client) PageSize() int {
	return c.pageSize
}

// listResponse is the NocoDB v2 list envelope.
type listResponse struct {
	List []table.Record `json:"list"`
}

// FetchAll retrieves every record of the table, paging sequentially from page 1
// until a page comes back empty or shorter than the page size. Any transport
// error or non-2xx status aborts the whole fetch: the result is an empty Table
// paired with the error, never a partial one. There are no retries; a failed
// page is terminal for the operation.
func (c *Client) FetchAll(ctx context.Context) (*table.Table, error) {
	start := time.Now()
	var records []table.Record

	for page := 1; ; page++ {
		pageRecords, err := c.fetchPage(ctx, page)
		if err != nil {
			logging.FetchError("page %d failed, discarding %d accumulated records: %v", page, len(records), err)
			return table.New(), fmt.Errorf("error fetching data: %w", err)
		}
		if len(pageRecords) == 0 {
			break
		}
		records = append(records, pageRecords...)
		if len(pageRecords) < c.pageSize {
			// Short page means we just read the last one.
			break
		}
	}

	logging.Fetch("fetched %d records in %v", len(records), time.Since(start))
	return table.FromRecords(records), nil
}

// fetchPage requests a single page of records.
func (c *Client) fetchPage(ctx context.Context, page int) ([]table.Record, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(c.pageSize))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xc-token", c.apiToken)
	req.Header.Set("Accept", "application/json")

	logging.FetchDebug("GET %s", u.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return list.List, nil
}
