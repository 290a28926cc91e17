// Package servicenow wraps the ServiceNow table API reads used by the sync:
// fetch a business application by name and dereference its person links.
package servicenow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	apperrors "sync-bridge/internal/common/errors"
	httpclient "sync-bridge/internal/common/http"
	"sync-bridge/internal/common/metrics"
)

const appTablePath = "/api/now/table/cmdb_ci_business_app"

// appFields is the fixed projection requested from the application table.
var appFields = []string{
	"name",
	"number",
	"u_primary_it_owner",
	"it_application_owner",
	"u_l3_name",
	"short_description",
	"u_regulatory_legal_and_compliance",
	"u_cloud_model",
	"install_type",
}

// Client is request-scoped: it carries the caller's base URL and the caller's
// Authorization header verbatim, and holds no other state.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *httpclient.Client
}

func NewClient(baseURL, authHeader string, httpClient *httpclient.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		authHeader: authHeader,
		httpClient: httpClient,
	}
}

// GetApplicationByName queries the business application table for an exact
// name match. An empty result set is reported as an application-not-found
// error, not silently dereferenced.
func (c *Client) GetApplicationByName(ctx context.Context, name string) (*Application, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, apperrors.NewCatalogRequestFailedError(fmt.Errorf("invalid base URL %q: %w", c.baseURL, err))
	}

	query := url.Values{}
	query.Set("sysparm_fields", strings.Join(appFields, ","))
	query.Set("sysparm_query", "name="+name)

	appURL := base.ResolveReference(&url.URL{Path: appTablePath, RawQuery: query.Encode()})

	start := time.Now()
	resp, err := c.httpClient.Get(ctx, appURL.String(), map[string]string{
		"Authorization": c.authHeader,
	})
	metrics.UpstreamRequestDuration.WithLabelValues("servicenow", "get_application").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, apperrors.NewCatalogRequestFailedError(fmt.Errorf("failed to fetch app with name %s: %w", name, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperrors.NewCatalogRequestFailedError(
			fmt.Errorf("failed to fetch app with name %s (status %d): %s", name, resp.StatusCode, string(body)))
	}

	var result struct {
		Result []Application `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.NewCatalogRequestFailedError(fmt.Errorf("failed to decode app response: %w", err))
	}

	if len(result.Result) == 0 {
		return nil, apperrors.NewApplicationNotFoundError(name)
	}

	return &result.Result[0], nil
}

// GetUserByLink performs an authenticated GET against an absolute link URL
// taken from a previously fetched Application.
func (c *Client) GetUserByLink(ctx context.Context, link string) (*User, error) {
	start := time.Now()
	resp, err := c.httpClient.Get(ctx, link, map[string]string{
		"Authorization": c.authHeader,
	})
	metrics.UpstreamRequestDuration.WithLabelValues("servicenow", "get_user").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, apperrors.NewCatalogRequestFailedError(fmt.Errorf("failed to fetch user: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperrors.NewCatalogRequestFailedError(
			fmt.Errorf("failed to fetch user (status %d): %s", resp.StatusCode, string(body)))
	}

	var result struct {
		Result User `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.NewCatalogRequestFailedError(fmt.Errorf("failed to decode user response: %w", err))
	}

	return &result.Result, nil
}
