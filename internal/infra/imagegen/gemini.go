package imagegen

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/yanqian/solarinfra/internal/domain/media"
)

const defaultGeminiModel = "imagen-3.0-generate-002"

// GeminiClient renders artwork with Google's Imagen models.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a client for the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Generate renders a single image for the prompt.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (media.Image, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return media.Image{}, fmt.Errorf("generate image: %w", err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return media.Image{}, errors.New("gemini returned no image")
	}
	img := resp.GeneratedImages[0].Image
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return media.Image{Data: img.ImageBytes, MimeType: mimeType}, nil
}

var _ media.ImageGenerator = (*GeminiClient)(nil)
