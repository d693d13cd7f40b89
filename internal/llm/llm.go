package llm

import (
	"context"
	"errors"
	"fmt"

	"ecochef/internal/config"
	"ecochef/internal/shared"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
)

// ErrNoContent is returned when the provider answered without any text.
var ErrNoContent = errors.New("no content generated")

// GenerateRequest is a single structured generation call.
type GenerateRequest struct {
	SystemInstruction string
	Prompt            string
	// ResponseSchema constrains the answer to JSON of this shape when set.
	ResponseSchema *genai.Schema
}

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, req GenerateRequest) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// NewFromConfig builds the generator for the configured provider, wrapped in
// a response cache when RESPONSE_CACHE_PATH is set.
func NewFromConfig(ctx context.Context, cfg *config.Config, log *zap.Logger) (TextGenerator, error) {
	var gen TextGenerator
	switch cfg.LLMProvider {
	case config.ProviderGroq:
		gen = NewGroqClient(cfg)
	default:
		g, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		gen = g
	}

	if cfg.ResponseCachePath == "" {
		return gen, nil
	}
	cached, err := NewCachedGenerator(gen, cfg.ResponseCachePath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to set up response cache: %w", err)
	}
	return cached, nil
}
