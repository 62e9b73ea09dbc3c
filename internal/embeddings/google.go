package embeddings

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GoogleModel represents a supported Google embedding model.
type GoogleModel string

const googleBatchSize = 100

const (
	ModelGeminiEmbedding001 GoogleModel = "gemini-embedding-001"
)

func (m GoogleModel) dimensions() int {
	switch m {
	case ModelGeminiEmbedding001:
		return 3072
	default:
		return 3072
	}
}

// GoogleEmbedder generates embeddings through the Gemini API.
type GoogleEmbedder struct {
	client *genai.Client
	model  GoogleModel
}

// NewGoogleEmbedder creates a new Google embedder. Creating the client does
// not contact the API.
func NewGoogleEmbedder(ctx context.Context, apiKey string, model GoogleModel) (*GoogleEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GoogleEmbedder{client: client, model: model}, nil
}

func (e *GoogleEmbedder) Name() string    { return "google/" + string(e.model) }
func (e *GoogleEmbedder) Dimensions() int { return e.model.dimensions() }

// Embed sends up to googleBatchSize texts per EmbedContent call.
func (e *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return embedBatched(texts, googleBatchSize, func(batch []string) ([][]float32, error) {
		contents := make([]*genai.Content, len(batch))
		for i, text := range batch {
			contents[i] = genai.NewContentFromText(text, genai.RoleUser)
		}
		result, err := e.client.Models.EmbedContent(ctx, string(e.model), contents, nil)
		if err != nil {
			return nil, fmt.Errorf("google embeddings: %w", err)
		}
		if result == nil {
			return nil, nil
		}
		vecs := make([][]float32, len(result.Embeddings))
		for i, emb := range result.Embeddings {
			vecs[i] = emb.Values
		}
		return vecs, nil
	})
}
