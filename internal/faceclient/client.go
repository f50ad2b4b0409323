package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Match is a single face match reported by the comparison service.
type Match struct {
	Similarity float64 `json:"similarity"`
	Confidence float64 `json:"confidence"`
}

// CompareResult contains face comparison results. An empty Matches list means
// the two images do not depict the same face above the threshold.
type CompareResult struct {
	Matches   []Match `json:"matches"`
	Threshold float64 `json:"threshold"`
}

// Matched reports whether at least one match cleared the threshold.
func (r *CompareResult) Matched() bool {
	return r != nil && len(r.Matches) > 0
}

// Client calls the face comparison microservice.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client with configurable timeout.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // face processing can take time
		},
	}
}

// Compare compares a stored reference image against a captured frame.
// threshold is the minimum similarity (0-100) for a match to be reported.
// A transport or service error is distinct from an empty match list.
func (c *Client) Compare(ctx context.Context, sourceURL, targetURL string, threshold float64) (*CompareResult, error) {
	if c.Skip {
		return &CompareResult{
			Matches:   []Match{{Similarity: 99.1, Confidence: 99.9}},
			Threshold: threshold,
		}, nil
	}
	if sourceURL == "" || targetURL == "" {
		return nil, fmt.Errorf("source and target image urls required")
	}

	body, _ := json.Marshal(map[string]interface{}{
		"source_url": sourceURL,
		"target_url": targetURL,
		"threshold":  threshold,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/compare", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("face service error %s: %s", resp.Status, string(bodyBytes))
	}

	var out CompareResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Threshold == 0 {
		out.Threshold = threshold
	}
	return &out, nil
}

// Health checks if the face service is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("face service unhealthy: %s", resp.Status)
	}

	return nil
}
