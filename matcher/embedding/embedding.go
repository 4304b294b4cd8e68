// Package embedding turns item text and photos into fixed-length vectors
// for similarity scoring. Providers are configuration-driven: the openai
// provider calls any OpenAI-compatible endpoint, the local provider is a
// deterministic, offline feature hasher suitable for development and
// tests. Both are deterministic for identical input and model version, so
// vectors can be cached against the stored rows.
package embedding

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
)

// Service extracts embeddings. Implementations must be safe for
// concurrent use and must respect context cancellation.
type Service interface {
	// EmbedText returns a Dimension()-length vector for the text.
	EmbedText(ctx context.Context, text string) ([]float32, error)
	// EmbedImage returns a Dimension()-length vector for raw photo bytes.
	EmbedImage(ctx context.Context, data []byte) ([]float32, error)
	// Dimension is the vector length this service produces.
	Dimension() int
	// Model identifies the model version for cache invalidation.
	Model() string
}

// Config selects and configures a provider.
type Config struct {
	Provider  string // "local" or "openai"
	Model     string
	APIKey    string
	BaseURL   string
	Dimension int
	Timeout   time.Duration
}

// DefaultConfig returns the local deterministic provider at 256
// dimensions.
func DefaultConfig() Config {
	return Config{
		Provider:  "local",
		Dimension: 256,
		Timeout:   10 * time.Second,
	}
}

// NewService builds a Service from config.
func NewService(cfg Config) (Service, error) {
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultConfig().Dimension
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	switch cfg.Provider {
	case "", "local":
		return newLocalService(cfg.Dimension), nil
	case "openai":
		return newOpenAIService(cfg)
	default:
		return nil, errors.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// Cosine returns the cosine similarity of two vectors in [-1, 1], or 0
// when either vector is empty or zero. Mismatched lengths compare the
// overlapping prefix.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
