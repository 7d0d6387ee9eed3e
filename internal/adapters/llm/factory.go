package llm

import (
	"fmt"
	"strings"

	"play_reviews/internal/domain"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Factory creates model clients with consistent configuration.
type Factory struct {
	GCPProject    string
	GCPToken      string
	GCPRegions    []string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

func (f *Factory) CreateClient(provider string) (domain.ModelClient, error) {
	switch strings.ToLower(provider) {
	case ProviderGemini:
		return NewGemini(GeminiConfig{
			Project: f.GCPProject,
			Token:   f.GCPToken,
			Regions: f.GCPRegions,
		})
	case ProviderOpenAI:
		return NewOpenAI(f.OpenAIAPIKey, f.OpenAIBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %s", provider)
	}
}
