package genai

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/example/concept-compass/internal/config"
)

// Provider produces both text and speech.
type Provider interface {
	TextGenerator
	SpeechGenerator
}

var (
	_ Provider = (*Client)(nil)
	_ Provider = (*Offline)(nil)
)

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(cfg config.GenAIConfig, logger *slog.Logger) (Provider, error) {
	name, err := config.NormalizeProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	switch name {
	case config.ProviderOffline:
		return NewOffline(), nil
	case config.ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini provider: %w", ErrMissingAPIKey)
		}

		opts := []Option{
			WithRetries(cfg.Retries),
			WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.TextModel != "" {
			opts = append(opts, WithTextModel(cfg.TextModel))
		}
		if cfg.SpeechModel != "" {
			opts = append(opts, WithSpeechModel(cfg.SpeechModel))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(time.Duration(cfg.Timeout)*time.Second))
		}
		if logger != nil {
			opts = append(opts, WithLogger(logger))
		}

		return NewClient(cfg.APIKey, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", name)
	}
}
