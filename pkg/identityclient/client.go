/**
 * @description
 * This package provides a client for the identity collaborator's privileged
 * admin API. The credits-service never stores or hashes credentials itself;
 * an administrative password reset is length-validated up front and then
 * delegated here in full.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 */
package identityclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a client for the identity provider's admin API.
type Client struct {
	BaseURL    string
	ServiceKey string
	HTTPClient *http.Client
}

// NewClient creates a new identity admin client.
func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		ServiceKey: serviceKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// updateUserRequest is the payload for a privileged user update.
type updateUserRequest struct {
	Password string `json:"password"`
}

// ErrorResponse represents an error from the identity API.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *ErrorResponse) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("identity api error: %d - %s", e.Code, e.Message)
	}
	return "unknown identity api error"
}

// SetUserPassword sets a new password for the target user via the admin
// endpoint. The caller is responsible for pre-flight validation; this client
// only reports the collaborator's verdict.
func (c *Client) SetUserPassword(ctx context.Context, userID, password string) error {
	body, err := json.Marshal(updateUserRequest{Password: password})
	if err != nil {
		return fmt.Errorf("failed to marshal password update: %w", err)
	}

	url := fmt.Sprintf("%s/auth/v1/admin/users/%s", c.BaseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create password update request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	req.Header.Set("apikey", c.ServiceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call identity api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		var apiErr ErrorResponse
		if jsonErr := json.Unmarshal(raw, &apiErr); jsonErr == nil && apiErr.Message != "" {
			return &apiErr
		}
		return fmt.Errorf("identity api returned status %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
