package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pogopipe/pkg/api"
)

// PipeClient handles API calls to the pogopipe controller.
type PipeClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewPipeClient creates a new client with the given base URL and token.
func NewPipeClient(baseURL, token string) *PipeClient {
	return &PipeClient{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (c *PipeClient) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// ProcessArtifact sends POST /artifacts/{id}/process to queue one artifact.
func (c *PipeClient) ProcessArtifact(artifactID string, req api.ProcessArtifactRequest) (*api.ProcessArtifactResponse, error) {
	var result api.ProcessArtifactResponse
	if err := c.do(http.MethodPost, fmt.Sprintf("/artifacts/%s/process", artifactID), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ProcessSession sends POST /sessions/{id}/process to batch-process a session.
func (c *PipeClient) ProcessSession(sessionID string, req api.ProcessSessionRequest) (*api.ProcessSessionResponse, error) {
	var result api.ProcessSessionResponse
	if err := c.do(http.MethodPost, fmt.Sprintf("/sessions/%s/process", sessionID), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskStatus sends GET /artifacts/{id}/task-status.
func (c *PipeClient) GetTaskStatus(artifactID string) (*api.TaskStatusResponse, error) {
	var result api.TaskStatusResponse
	if err := c.do(http.MethodGet, fmt.Sprintf("/artifacts/%s/task-status", artifactID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RetryArtifact sends POST /artifacts/{id}/retry.
func (c *PipeClient) RetryArtifact(artifactID string) (*api.RetryResponse, error) {
	var result api.RetryResponse
	if err := c.do(http.MethodPost, fmt.Sprintf("/artifacts/%s/retry", artifactID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetLatestContent sends GET /artifacts/{id}/updates/latest.
func (c *PipeClient) GetLatestContent(artifactID string) (*api.LatestContentResponse, error) {
	var result api.LatestContentResponse
	if err := c.do(http.MethodGet, fmt.Sprintf("/artifacts/%s/updates/latest", artifactID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateTenant sends POST /tenants. The token must be the admin secret.
func (c *PipeClient) CreateTenant(req api.CreateTenantRequest) (*api.CreateTenantResponse, error) {
	var result api.CreateTenantResponse
	if err := c.do(http.MethodPost, "/tenants", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
