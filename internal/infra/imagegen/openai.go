package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/solarinfra/internal/domain/media"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-image-1"
	defaultOpenAISize    = "1024x1024"
)

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// OpenAIClient calls the OpenAI images API.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	size       string
	httpClient *http.Client
}

// NewOpenAIClient constructs an image client.
func NewOpenAIClient(apiKey, baseURL, model string) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai api key cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		size:    defaultOpenAISize,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Generate renders one PNG for the prompt.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (media.Image, error) {
	payload, err := json.Marshal(imageRequest{Model: c.model, Prompt: prompt, N: 1, Size: c.size})
	if err != nil {
		return media.Image{}, fmt.Errorf("encode image request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return media.Image{}, fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return media.Image{}, fmt.Errorf("request image generation: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return media.Image{}, fmt.Errorf("openai image request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return media.Image{}, fmt.Errorf("decode image response: %w", err)
	}
	if len(out.Data) == 0 || out.Data[0].B64JSON == "" {
		return media.Image{}, errors.New("openai returned no image")
	}
	data, err := base64.StdEncoding.DecodeString(out.Data[0].B64JSON)
	if err != nil {
		return media.Image{}, fmt.Errorf("decode image payload: %w", err)
	}
	return media.Image{Data: data, MimeType: "image/png"}, nil
}

var _ media.ImageGenerator = (*OpenAIClient)(nil)
