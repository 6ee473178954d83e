package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ledgerline-ai/ledgerline/pkg/types"
)

// Registry manages all available providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	config    *types.Config
}

// NewRegistry creates a new provider registry.
func NewRegistry(config *types.Config) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		config:    config,
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.ID()] = provider
}

// Get retrieves a provider by ID.
func (r *Registry) Get(providerID string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[providerID]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", providerID)
	}
	return provider, nil
}

// List returns all registered providers.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	return providers
}

// Default returns the provider and model named by the summarizer config
// ("provider/model"), or the first registered provider when unset.
func (r *Registry) Default() (Provider, string, error) {
	if r.config != nil && r.config.Summarizer.Model != "" {
		providerID, modelID := ParseModelString(r.config.Summarizer.Model)
		p, err := r.Get(providerID)
		if err != nil {
			return nil, "", err
		}
		return p, modelID, nil
	}

	providers := r.List()
	if len(providers) == 0 {
		return nil, "", fmt.Errorf("no providers available")
	}
	return providers[0], "", nil
}

// ParseModelString parses "provider/model" format.
func ParseModelString(s string) (providerID, modelID string) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", s
}

// InitializeProviders creates and registers all providers from config.
// Providers whose credentials are missing are skipped, not fatal: the
// summarizer degrades gracefully when no provider is available.
func InitializeProviders(ctx context.Context, config *types.Config) (*Registry, error) {
	registry := NewRegistry(config)

	if cfg, ok := config.Provider["anthropic"]; ok && !cfg.Disabled {
		provider, err := NewAnthropicProvider(ctx, &AnthropicConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		})
		if err == nil {
			registry.Register(provider)
		}
	}

	if cfg, ok := config.Provider["openai"]; ok && !cfg.Disabled {
		provider, err := NewOpenAIProvider(ctx, &OpenAIConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		})
		if err == nil {
			registry.Register(provider)
		}
	}

	return registry, nil
}
