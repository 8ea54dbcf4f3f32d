package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rescuenet/models"
)

// APIError is a non-2xx answer from the server, distinct from the transport
// failures that mark the session offline.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether the error is a 404 from the server.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// API talks to the alert server's HTTP surface.
type API struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPI(baseURL string) *API {
	return &API{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (a *API) CreateAlert(ctx context.Context, req models.CreateAlertRequest) (*models.Alert, error) {
	var alert models.Alert
	if err := a.do(ctx, http.MethodPost, "/api/v1/alerts", req, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

func (a *API) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	var alert models.Alert
	if err := a.do(ctx, http.MethodGet, "/api/v1/alerts/"+alertID, nil, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

func (a *API) PushLocation(ctx context.Context, alertID string, req models.UpdateLocationRequest) error {
	return a.do(ctx, http.MethodPatch, "/api/v1/alerts/"+alertID+"/location", req, nil)
}

func (a *API) UpdateStatus(ctx context.Context, alertID, status string) (*models.Alert, error) {
	var alert models.Alert
	req := models.UpdateAlertStatusRequest{Status: status}
	if err := a.do(ctx, http.MethodPatch, "/api/v1/alerts/"+alertID+"/status", req, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

func (a *API) CancelAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	return a.UpdateStatus(ctx, alertID, models.AlertStatusCancelled)
}

func (a *API) MarkOffline(ctx context.Context, alertID string) error {
	return a.do(ctx, http.MethodPatch, "/api/v1/alerts/"+alertID+"/offline", nil, nil)
}

// do issues a request and unwraps the standard response envelope. Transport
// errors come back as-is; HTTP errors come back as *APIError.
func (a *API) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	var envelope models.APIResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := envelope.Message
		if message == "" {
			message = resp.Status
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil && envelope.Data != nil {
		data, err := json.Marshal(envelope.Data)
		if err != nil {
			return err
		}
		// Location updates nest the alert inside the data payload.
		var wrapped struct {
			Alert json.RawMessage `json:"alert"`
		}
		if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Alert != nil {
			return json.Unmarshal(wrapped.Alert, out)
		}
		return json.Unmarshal(data, out)
	}

	return nil
}
