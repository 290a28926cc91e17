// Package onspring wraps the two Onspring API primitives the sync needs:
// query a record id by field value and create a record. Field ids and app ids
// are caller-supplied schema coordinates and are treated as opaque.
package onspring

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	apperrors "sync-bridge/internal/common/errors"
	httpclient "sync-bridge/internal/common/http"
	"sync-bridge/internal/common/metrics"
)

// Client is request-scoped: it carries only the caller's API key.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpclient.Client
}

func NewClient(apiKey, baseURL string, httpClient *httpclient.Client) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type queryRequest struct {
	AppID    int    `json:"appId"`
	Filter   string `json:"filter"`
	FieldIDs []int  `json:"fieldIds"`
}

type queryResponse struct {
	Items []struct {
		RecordID int `json:"recordId"`
	} `json:"items"`
}

type saveRecordRequest struct {
	AppID  int               `json:"appId"`
	Fields map[string]string `json:"fields"`
}

type saveRecordResponse struct {
	ID int `json:"id"`
}

// GetRecordIDByFieldValue queries one app for a record whose field equals
// value and returns the first match's record id. An empty-but-successful
// result is the documented not-found signal and returns the sentinel 0 with
// no error; only transport failures error.
func (c *Client) GetRecordIDByFieldValue(ctx context.Context, appID, fieldID int, value string) (int, error) {
	payload := queryRequest{
		AppID:    appID,
		Filter:   fmt.Sprintf("%d eq '%s'", fieldID, value),
		FieldIDs: []int{fieldID},
	}

	start := time.Now()
	resp, err := c.httpClient.PostJSON(ctx, c.baseURL+"/Records/Query", c.headers(), payload)
	metrics.UpstreamRequestDuration.WithLabelValues("onspring", "query_records").Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, apperrors.NewRegistryQueryFailedError(
			fmt.Errorf("failed to query record with field %d and value %s: %w", fieldID, value, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return 0, apperrors.NewRegistryQueryFailedError(
			fmt.Errorf("failed to query record with field %d and value %s (status %d): %s",
				fieldID, value, resp.StatusCode, string(body)))
	}

	var result queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, apperrors.NewRegistryQueryFailedError(fmt.Errorf("failed to decode query response: %w", err))
	}

	if len(result.Items) == 0 {
		return 0, nil
	}

	return result.Items[0].RecordID, nil
}

// SaveRecord creates one record and returns its id. The call is not
// idempotent: issuing it twice for the same logical person creates a
// duplicate record, so callers must not retry it.
func (c *Client) SaveRecord(ctx context.Context, appID int, fields map[int]string) (int, error) {
	payload := saveRecordRequest{
		AppID:  appID,
		Fields: make(map[string]string, len(fields)),
	}
	for fieldID, value := range fields {
		payload.Fields[strconv.Itoa(fieldID)] = value
	}

	start := time.Now()
	resp, err := c.httpClient.PostJSON(ctx, c.baseURL+"/Records", c.headers(), payload)
	metrics.UpstreamRequestDuration.WithLabelValues("onspring", "save_record").Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, apperrors.NewRecordCreateFailedError(fmt.Errorf("failed to save record: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return 0, apperrors.NewRecordCreateFailedError(
			fmt.Errorf("failed to save record (status %d): %s", resp.StatusCode, string(body)))
	}

	var result saveRecordResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, apperrors.NewRecordCreateFailedError(fmt.Errorf("failed to decode save response: %w", err))
	}

	return result.ID, nil
}

func (c *Client) headers() map[string]string {
	return map[string]string{"x-apikey": c.apiKey}
}
