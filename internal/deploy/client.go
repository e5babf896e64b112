package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// DefaultEndpoint receives deployment bundles when no endpoint is configured.
const DefaultEndpoint = "https://yron03hrwk.execute-api.us-east-1.amazonaws.com/dev/docs/build"

// ErrRejected is returned when the endpoint answers anything but 202.
var ErrRejected = errors.New("deploy: deployment rejected")

// RejectedError carries the endpoint's answer to a failed submission.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("deploy: deployment failed: %d %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (e *RejectedError) Unwrap() error { return ErrRejected }

// Client uploads bundles to the build endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, httpClient *http.Client) *Client {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

type submitResponse struct {
	Body string `json:"body"`
}

// Submit posts the bundle at bundlePath and returns the URL the deployment
// will be served from.
func (c *Client) Submit(ctx context.Context, apiKey, bundlePath string) (string, error) {
	file, err := os.Open(bundlePath)
	if err != nil {
		return "", fmt.Errorf("deploy: open bundle: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("deploy: stat bundle: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, file)
	if err != nil {
		return "", fmt.Errorf("deploy: build request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("Content-Type", "application/zip")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("deploy: submit: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("deploy: read response: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return "", &RejectedError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload submitResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("deploy: decode response: %w", err)
	}
	return payload.Body, nil
}
