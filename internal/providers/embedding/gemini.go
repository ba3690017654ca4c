package embedding

import (
	"context"
	"errors"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini embeds text through the Gemini embedding API. text-embedding-004
// produces 768-dimensional vectors, matching the pool's vector columns.
type Gemini struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required for gemini embeddings")
	}
	if modelName == "" {
		modelName = "text-embedding-004"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &Gemini{client: client, model: client.EmbeddingModel(modelName)}, nil
}

func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := g.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return res.Embedding.Values, nil
}

func (g *Gemini) Close() error { return g.client.Close() }
