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

const (
	defaultBaseURL     = "http://localhost:11434"
	defaultModel       = "all-minilm"
	embedEndpoint      = "/api/embed"
	generateEndpoint   = "/api/generate"
	defaultHTTPTimeout = 30 * time.Second
)

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.BaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// Client talks to a local Ollama server for embeddings and text generation.
type Client struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings      [][]float32 `json:"embeddings"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	Error           string      `json:"error"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func NewClientWithOptions(model string, opts ...ClientOption) *Client {
	if model == "" {
		model = defaultModel
	}
	c := &Client{
		BaseURL:    defaultBaseURL,
		Model:      model,
		HTTPClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, int, error) {
	if c == nil {
		return nil, 0, fmt.Errorf("ollama client is nil")
	}
	if len(texts) == 0 {
		return nil, 0, fmt.Errorf("no input texts provided")
	}
	var out embedResponse
	if err := c.post(ctx, embedEndpoint, embedRequest{Model: c.Model, Input: texts}, &out); err != nil {
		return nil, 0, err
	}
	if out.Error != "" {
		return nil, 0, fmt.Errorf("ollama API error: %s", out.Error)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, 0, fmt.Errorf("ollama returned %d vectors for %d inputs", len(out.Embeddings), len(texts))
	}
	return out.Embeddings, out.PromptEvalCount, nil
}

// Generate runs a single non-streaming completion.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("ollama client is nil")
	}
	var out generateResponse
	if err := c.post(ctx, generateEndpoint, generateRequest{Model: c.Model, Prompt: prompt}, &out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama API error: %s", out.Error)
	}
	return strings.TrimSpace(out.Response), nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama API error: %s", strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
