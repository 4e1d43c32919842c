package cloud

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
)

const (
	APIKeyHeader   = "X-Sync-Api-Key"
	DefaultTimeout = 15 * time.Second

	pathPendingOrders   = "/api/sync/orders/pending"
	pathConfirmOrders   = "/api/sync/orders/confirm"
	pathCustomerChanges = "/api/sync/customers/changes"
	pathCustomersBulk   = "/api/sync/customers/bulk"
	pathMenu            = "/api/sync/menu"
	pathConfig          = "/api/sync/config"
)

// ISO8601 with millisecond precision, always UTC.
const sinceLayout = "2006-01-02T15:04:05.000Z"

type Client struct {
	host       string
	apiKey     string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cloud API error (%d): %s", e.Status, e.Body)
}

// IsAPIError reports whether err carries a non-2xx cloud response.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func NewClient(httpClient *http.Client, host, apiKey string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		host:       strings.TrimRight(strings.TrimSpace(host), "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (c *Client) Host() string {
	if c == nil {
		return ""
	}
	return c.host
}

func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if c == nil || c.host == "" {
		return errors.New("cloud client is not configured")
	}
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(APIKeyHeader, c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) GetPendingOrders(ctx context.Context) ([]RemoteOrder, error) {
	var env dataEnvelope[[]RemoteOrder]
	if err := c.doRequest(ctx, http.MethodGet, pathPendingOrders, nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) ConfirmOrders(ctx context.Context, updates []OrderConfirmation) error {
	if len(updates) == 0 {
		return nil
	}
	body := struct {
		OrderUpdates []OrderConfirmation `json:"orderUpdates"`
	}{OrderUpdates: updates}
	return c.doRequest(ctx, http.MethodPost, pathConfirmOrders, nil, body, nil)
}

func (c *Client) GetCustomerChanges(ctx context.Context, since time.Time) ([]RemoteCustomer, error) {
	query := url.Values{}
	query.Set("since", since.UTC().Format(sinceLayout))
	var env dataEnvelope[[]RemoteCustomer]
	if err := c.doRequest(ctx, http.MethodGet, pathCustomerChanges, query, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) PushCustomers(ctx context.Context, customers []RemoteCustomer) error {
	if len(customers) == 0 {
		return nil
	}
	body := struct {
		Customers []RemoteCustomer `json:"customers"`
	}{Customers: customers}
	return c.doRequest(ctx, http.MethodPost, pathCustomersBulk, nil, body, nil)
}

func (c *Client) PushMenu(ctx context.Context, categories []MenuCategory) error {
	if categories == nil {
		categories = []MenuCategory{}
	}
	body := struct {
		Categories []MenuCategory `json:"categories"`
	}{Categories: categories}
	return c.doRequest(ctx, http.MethodPost, pathMenu, nil, body, nil)
}

func (c *Client) PushConfig(ctx context.Context, cfg RestaurantConfig) error {
	body := struct {
		Config RestaurantConfig `json:"config"`
	}{Config: cfg}
	return c.doRequest(ctx, http.MethodPost, pathConfig, nil, body, nil)
}
