// Package extraction calls an optional external document-extraction
// service to pull named financial assumptions out of a file. The call is
// strictly opportunistic: any failure (network, non-2xx, malformed
// response) is returned as an error the pipeline swallows, falling back
// to local inference.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client talks to the extraction service. A nil Client, or one with an
// empty base URL, is disabled.
type Client struct {
	baseURL  string
	apiToken string
	client   *http.Client
}

// New builds a client. baseURL empty means extraction is disabled.
func New(baseURL, apiToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a service is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Result is the service response: assumption values it could read from
// the document, plus which fields it found and its own confidence.
type Result struct {
	Assumptions     map[string]float64 `json:"assumptions"`
	ExtractedFields []string           `json:"extracted_fields"`
	Confidence      float64            `json:"confidence"`
}

// Extract uploads the file content and returns the extracted assumptions.
func (c *Client) Extract(ctx context.Context, filename string, content io.Reader) (*Result, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("extraction service not configured")
	}

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}

	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("copying file content: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract", &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())

	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from extraction service", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if result.Assumptions == nil {
		return nil, fmt.Errorf("extraction response missing assumptions")
	}

	return &result, nil
}
