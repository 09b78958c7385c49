package client

import (
	"fmt"

	"github.com/richinex/pilotchat/config"
)

// New creates the provider named by the settings. Copilot loads its
// credential from the token file; the other providers read an API key
// from the environment.
func New(settings config.Settings) (Provider, error) {
	switch settings.Provider {
	case "copilot":
		auth, err := LoadAuth(settings.TokenPath)
		if err != nil {
			return nil, fmt.Errorf("copilot auth: %w", err)
		}
		return NewCopilotProvider(auth), nil
	case "openai":
		key, err := config.APIKeyFor(settings.Provider)
		if err != nil {
			return nil, err
		}
		return NewOpenAIProvider(key), nil
	case "anthropic":
		key, err := config.APIKeyFor(settings.Provider)
		if err != nil {
			return nil, err
		}
		return NewAnthropicProvider(key), nil
	case "gemini":
		key, err := config.APIKeyFor(settings.Provider)
		if err != nil {
			return nil, err
		}
		return NewGeminiProvider(key), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", settings.Provider)
	}
}
