// Package gpus lists GPU availability from the RunPod API, for picking a
// host before deploying the stack.
package gpus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.runpod.io/graphql"

// GPUType is one GPU offering reported by the API.
type GPUType struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	MemoryInGB  int    `json:"memoryInGb"`
}

// Client is a minimal RunPod GraphQL client; only the GPU-type query is
// implemented.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

const gpuTypesQuery = `query GpuTypes { gpuTypes { id displayName memoryInGb } }`

// ListGPUTypes fetches the available GPU types. Any transport or API error
// is fatal to the caller; there is no retry.
func (c *Client) ListGPUTypes(ctx context.Context) ([]GPUType, error) {
	body, err := json.Marshal(map[string]string{"query": gpuTypesQuery})
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("api_key", c.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("runpod request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("runpod http error: %s: %s", resp.Status, string(b))
	}

	var parsed struct {
		Data struct {
			GPUTypes []GPUType `json:"gpuTypes"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode runpod response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("runpod api error: %s", parsed.Errors[0].Message)
	}
	return parsed.Data.GPUTypes, nil
}
