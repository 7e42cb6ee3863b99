// Package pipeline drives the API's settlement and snapshot endpoints from
// outside the server process, authenticating with the pipeline API key.
package pipeline

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

	"igudar/internal/models"
)

// APIError is a non-2xx answer from the API, decoded from its error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsCode reports whether err is an APIError carrying code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// SnapshotResult is the outcome of a snapshot run.
type SnapshotResult struct {
	SnapshotsRecorded int       `json:"snapshots_recorded"`
	RecordedAt        time.Time `json:"recorded_at"`
}

// Client communicates with the pipeline endpoints of the API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new pipeline API client.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// RecordSnapshots asks the API to value every portfolio at recordedAt.
// A zero recordedAt lets the server use its own clock.
func (c *Client) RecordSnapshots(ctx context.Context, recordedAt time.Time) (*SnapshotResult, error) {
	var body interface{}
	if !recordedAt.IsZero() {
		body = struct {
			RecordedAt string `json:"recorded_at"`
		}{RecordedAt: recordedAt.UTC().Format(time.RFC3339)}
	}

	var result SnapshotResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/pipeline/snapshots", body, &result); err != nil {
		return nil, fmt.Errorf("recording snapshots: %w", err)
	}
	return &result, nil
}

// ConfirmInvestment settles a pending investment.
func (c *Client) ConfirmInvestment(ctx context.Context, id string) (*models.Investment, error) {
	var investment models.Investment
	if err := c.do(ctx, http.MethodPost, "/api/v1/pipeline/investments/"+url.PathEscape(id)+"/confirm", nil, &investment); err != nil {
		return nil, fmt.Errorf("confirming investment %s: %w", id, err)
	}
	return &investment, nil
}

// RefundInvestment reverses a confirmed investment.
func (c *Client) RefundInvestment(ctx context.Context, id string) (*models.Investment, error) {
	var investment models.Investment
	if err := c.do(ctx, http.MethodPost, "/api/v1/pipeline/investments/"+url.PathEscape(id)+"/refund", nil, &investment); err != nil {
		return nil, fmt.Errorf("refunding investment %s: %w", id, err)
	}
	return &investment, nil
}

// envelope mirrors the API response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decoding response: %w", decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}
