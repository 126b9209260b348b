package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	defaultBaseURL        = "https://api.openai.com/v1"
	embeddingsEndpoint    = "/embeddings"
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultHTTPClientTO   = 30 * time.Second
)

// Request represents the request structure for OpenAI embeddings API
type Request struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// Response represents the response structure from OpenAI embeddings API
type Response struct {
	Data  []EmbeddingData `json:"data"`
	Model string          `json:"model"`
	Usage EmbeddingUsage  `json:"usage"`
}

// EmbeddingData represents a single embedding in the OpenAI embeddings API response
type EmbeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type EmbeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// NewClient falls back to OPENAI_API_KEY when apiKey is empty.
func NewClient(apiKey, model string) *Client {
	c := &Client{
		BaseURL:    defaultBaseURL,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: defaultHTTPClientTO},
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Model == "" {
		c.Model = defaultEmbeddingModel
	}
	return c
}

// Embed creates embeddings for the given texts, ordered as the input.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, int, error) {
	if len(texts) == 0 {
		return nil, 0, fmt.Errorf("no input texts provided")
	}
	if c.APIKey == "" {
		return nil, 0, fmt.Errorf("openai api key is not set")
	}
	reqBody, err := json.Marshal(Request{Model: c.Model, Input: texts})
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+embeddingsEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct{ Message, Type string } `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return nil, 0, fmt.Errorf("API error (%s): %s", errResp.Error.Type, errResp.Error.Message)
		}
		return nil, 0, fmt.Errorf("API error: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	var embeddingResp Response
	if err := json.Unmarshal(data, &embeddingResp); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	if len(embeddingResp.Data) != len(texts) {
		return nil, 0, fmt.Errorf("openai returned %d vectors for %d inputs", len(embeddingResp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, d := range embeddingResp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, 0, fmt.Errorf("openai returned out-of-range index %d", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, embeddingResp.Usage.TotalTokens, nil
}

// Embedder bridges the client to the embeddings.Embedder interface.
type Embedder struct {
	C *Client
}

func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	if e == nil || e.C == nil {
		return nil, fmt.Errorf("openai embedder not configured")
	}
	vecs, _, err := e.C.Embed(ctx, docs)
	return vecs, err
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
