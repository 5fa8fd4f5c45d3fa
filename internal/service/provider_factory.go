package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/omniprompt/internal/domain"
	"github.com/phrazzld/omniprompt/internal/generation"
	"github.com/phrazzld/omniprompt/internal/platform/deepseek"
	"github.com/phrazzld/omniprompt/internal/platform/gemini"
	"github.com/phrazzld/omniprompt/internal/platform/openai"
)

// GeneratorFactory builds a provider client from run settings. The run
// service holds one so tests can substitute scripted generators.
type GeneratorFactory func(ctx context.Context, logger *slog.Logger, settings domain.ProviderSettings) (generation.Generator, error)

// NewGenerator is the production GeneratorFactory: it selects the
// provider client named by the settings. Adding a provider means adding
// a case here and nowhere else.
func NewGenerator(ctx context.Context, logger *slog.Logger, settings domain.ProviderSettings) (generation.Generator, error) {
	switch settings.Provider {
	case domain.ProviderOpenAI:
		return openai.NewClient(logger, settings)
	case domain.ProviderDeepSeek:
		return deepseek.NewClient(logger, settings)
	case domain.ProviderGemini:
		return gemini.NewGenerator(ctx, logger, settings)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", generation.ErrInvalidConfig, settings.Provider)
	}
}
