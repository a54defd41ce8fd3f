/**
 * @description
 * This package provides a client for the object-storage collaborator that
 * holds reported image assets. Only deletion is needed here: when an
 * administrator deletes a report record, the underlying asset is removed
 * first, best-effort.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 */
package storageclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a client for the storage API.
type Client struct {
	BaseURL    string
	ServiceKey string
	Bucket     string
	HTTPClient *http.Client
}

// NewClient creates a new storage API client.
func NewClient(baseURL, serviceKey, bucket string) *Client {
	return &Client{
		BaseURL:    baseURL,
		ServiceKey: serviceKey,
		Bucket:     bucket,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ErrorResponse represents an error from the storage API.
type ErrorResponse struct {
	StatusCode string `json:"statusCode"`
	Message    string `json:"message"`
}

func (e *ErrorResponse) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("storage api error: %s - %s", e.StatusCode, e.Message)
	}
	return "unknown storage api error"
}

// deleteObjectsRequest is the payload for a bulk object delete.
type deleteObjectsRequest struct {
	Prefixes []string `json:"prefixes"`
}

// DeleteObject removes one object from the configured bucket.
func (c *Client) DeleteObject(ctx context.Context, objectPath string) error {
	payload := deleteObjectsRequest{Prefixes: []string{objectPath}}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal delete request: %w", err)
	}

	url := fmt.Sprintf("%s/storage/v1/object/%s", c.BaseURL, c.Bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call storage api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		var apiErr ErrorResponse
		if jsonErr := json.Unmarshal(raw, &apiErr); jsonErr == nil && apiErr.Message != "" {
			return &apiErr
		}
		return fmt.Errorf("storage api returned status %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
