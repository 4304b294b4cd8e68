package embedding

import (
	"context"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/JaCARYK/beartracks/internal/errs"
)

// openaiService calls an OpenAI-compatible embeddings endpoint. Any
// provider speaking the protocol works by overriding BaseURL.
type openaiService struct {
	client  *openai.Client
	model   string
	dim     int
	timeout time.Duration
}

func newOpenAIService(cfg Config) (*openaiService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai embedding provider requires an API key")
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &openaiService{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		dim:     cfg.Dimension,
		timeout: cfg.Timeout,
	}, nil
}

func (s *openaiService) Dimension() int { return s.dim }

func (s *openaiService) Model() string { return s.model }

func (s *openaiService) EmbedText(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(s.model),
		Dimensions: s.dim,
	})
	if err != nil {
		return nil, &errs.ExtractionError{Source: "text", Err: errors.Wrap(err, "embeddings request")}
	}
	if len(resp.Data) == 0 {
		return nil, &errs.ExtractionError{Source: "text", Err: errors.New("empty embeddings response")}
	}
	return resp.Data[0].Embedding, nil
}

// EmbedImage is not supported by the embeddings protocol; callers degrade
// to phash plus text signals.
func (s *openaiService) EmbedImage(_ context.Context, _ []byte) ([]float32, error) {
	return nil, &errs.ExtractionError{
		Source: "image",
		Err:    errors.Errorf("provider %s does not support image embeddings", s.model),
	}
}
