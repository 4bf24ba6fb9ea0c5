package index

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/claimtrust/internal/model"
	"github.com/ppiankov/claimtrust/internal/util"
	"github.com/ppiankov/claimtrust/internal/worker"
)

// OpenAIEmbedder embeds text with the OpenAI embeddings API
type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	dims    int
	timeout time.Duration
	limiter *worker.Limiter
}

// NewOpenAIEmbedder creates an embedder from the index configuration
func NewOpenAIEmbedder(cfg model.IndexConfig, limiter *worker.Limiter) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required for the openai embedder")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = util.NewHTTPClient(0, "", "", "")

	modelName := cfg.Model
	if modelName == "" {
		modelName = string(openai.SmallEmbedding3)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   modelName,
		dims:    cfg.Dimensions,
		timeout: timeout,
		limiter: limiter,
	}, nil
}

func (e *OpenAIEmbedder) Name() string    { return "openai:" + e.model }
func (e *OpenAIEmbedder) Dimensions() int { return e.dims }

// Embed requests one embedding, waiting on the limiter first
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx, worker.ServiceEmbedding); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctxWithTimeout, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dims,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings error: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned from OpenAI")
	}

	vec := resp.Data[0].Embedding
	if e.dims > 0 && len(vec) != e.dims {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(vec), e.dims)
	}
	return vec, nil
}
