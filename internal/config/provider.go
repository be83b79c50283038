package config

import (
	"fmt"
	"strings"
)

const (
	ProviderGemini  = "gemini"
	ProviderOffline = "offline"
)

func NormalizeProvider(raw string) (string, error) {
	provider := strings.ToLower(strings.TrimSpace(raw))
	if provider == "" {
		provider = ProviderGemini
	}
	switch provider {
	case ProviderGemini, ProviderOffline:
		return provider, nil
	case "google", "googleai":
		return ProviderGemini, nil
	case "mock":
		return ProviderOffline, nil
	default:
		return "", fmt.Errorf(
			"invalid provider %q (expected %s|%s)",
			raw,
			ProviderGemini,
			ProviderOffline,
		)
	}
}
