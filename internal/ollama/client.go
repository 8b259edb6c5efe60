package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to an Ollama-compatible endpoint.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

type GenerateRequest struct {
	Endpoint    string
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
	TopP        float64
}

type GenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Generate issues a non-streaming generation request.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	payload := map[string]interface{}{
		"model":  req.Model,
		"prompt": req.Prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
			"top_p":       req.TopP,
		},
	}

	body, err := json.Marshal(payload)

	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/generate", req.Endpoint), bytes.NewBuffer(body))

	if err != nil {
		return "", err
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)

	if err != nil {
		return "", err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generate returned %s: %s", resp.Status, string(raw))
	}

	var data GenerateResponse

	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("invalid generate response: %w", err)
	}

	if data.Error != "" {
		return "", fmt.Errorf("generate failed: %s", data.Error)
	}

	return data.Response, nil
}

// ListModels returns the model names available at an endpoint.
func (c *Client) ListModels(ctx context.Context, endpoint string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/tags", endpoint), nil)

	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var payload struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	var names []string
	for _, m := range payload.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// CheckModel reports whether the configured model is served by the endpoint.
// A name matches exactly or as a colon-suffixed variant, so "llama3.2"
// matches "llama3.2:latest".
func (c *Client) CheckModel(ctx context.Context, endpoint, modelName string) (bool, error) {
	names, err := c.ListModels(ctx, endpoint)

	if err != nil {
		return false, err
	}

	for _, name := range names {
		if name == modelName || strings.HasPrefix(name, modelName+":") {
			return true, nil
		}
	}

	return false, nil
}
