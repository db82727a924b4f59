package providers

import (
	"fmt"
	"strings"

	"github.com/dotsetgreg/taskwise/pkg/config"
)

// Cohere exposes an OpenAI-compatible compatibility endpoint, so the chat
// completions client works unchanged.
const (
	defaultCohereAPIBase = "https://api.cohere.ai/compatibility/v1"
	defaultCohereModel   = "command-a-03-2025"
)

func init() {
	RegisterFactory(ProviderCohere, newCohereProviderFromConfig, validateCohereConfig)
}

func validateCohereConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if strings.TrimSpace(cfg.Providers.Cohere.APIKey) == "" {
		return fmt.Errorf("Cohere API key is required (set providers.cohere.api_key or TASKWISE_PROVIDERS_COHERE_API_KEY)")
	}
	return nil
}

func newCohereProviderFromConfig(cfg *config.Config) (LLMProvider, error) {
	if err := validateCohereConfig(cfg); err != nil {
		return nil, err
	}

	apiBase := strings.TrimSpace(cfg.Providers.Cohere.APIBase)
	if apiBase == "" {
		apiBase = defaultCohereAPIBase
	}
	auth := NewAPIKeyAuth(NewStaticTokenSource(cfg.Providers.Cohere.APIKey, "providers.cohere.api_key"))
	return newChatCompletionsProvider(
		ProviderCohere,
		apiBase,
		defaultCohereModel,
		strings.TrimSpace(cfg.Providers.Cohere.Proxy),
		auth,
		nil,
	)
}
