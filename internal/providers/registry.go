package providers

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry holds references to LLM clients. It supports config-driven
// instantiation, hot-reload, and provides thread-safe access.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]LLMClient
	logger  *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]LLMClient),
		logger:  slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register registers an LLM client by name.
func (r *Registry) Register(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	if r.logger != nil {
		r.logger.Info("registered LLM client", "name", name)
	}
}

// Unregister removes an LLM client by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, name)
	if r.logger != nil {
		r.logger.Info("unregistered LLM client", "name", name)
	}
}

// Get returns an LLM client by name.
func (r *Registry) Get(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// Has checks if an LLM client is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[name]
	return ok
}

// List returns all registered LLM client names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}

// RegistryConfig defines the providers to instantiate from config.
// This mirrors the config.Config structure for provider setup.
type RegistryConfig struct {
	// Providers maps provider names to their config.
	Providers map[string]ProviderConfig
}

// ProviderConfig matches config.ProviderCfg with resolved API key.
type ProviderConfig struct {
	Type        string // "huggingface", "openai", "mock"
	Model       string
	APIKey      string // Resolved API key
	EndpointURL string // Dedicated endpoint (huggingface)
	MaxTokens   int
	Temperature float64
	TopP        float64
	Enabled     bool
}

// NewRegistryFromConfig creates a registry with providers based on
// configuration. Only enabled providers with valid API keys will be
// registered.
func NewRegistryFromConfig(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	for name, provCfg := range cfg.Providers {
		if !enabled(provCfg) {
			continue
		}
		if client := createClient(provCfg); client != nil {
			r.clients[name] = client
		}
	}
	return r
}

// Reload updates the registry based on new configuration. Providers
// that are no longer configured will be unregistered, and providers
// with changed settings will be re-registered.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]bool)
	for name, provCfg := range cfg.Providers {
		if !enabled(provCfg) {
			continue
		}
		want[name] = true

		existing, hasExisting := r.clients[name]
		if hasExisting && !needsUpdate(existing, provCfg) {
			continue
		}
		client := createClient(provCfg)
		if client == nil {
			continue
		}
		r.clients[name] = client
		if r.logger != nil {
			if hasExisting {
				r.logger.Info("updated LLM client", "name", name, "type", provCfg.Type)
			} else {
				r.logger.Info("registered LLM client", "name", name, "type", provCfg.Type)
			}
		}
	}

	for name := range r.clients {
		if !want[name] {
			delete(r.clients, name)
			if r.logger != nil {
				r.logger.Info("unregistered LLM client", "name", name)
			}
		}
	}
}

// enabled reports whether a provider config should produce a client.
// The mock provider needs no API key.
func enabled(cfg ProviderConfig) bool {
	if !cfg.Enabled {
		return false
	}
	return cfg.Type == "mock" || cfg.APIKey != ""
}

// createClient creates an LLM client based on provider type.
func createClient(cfg ProviderConfig) LLMClient {
	switch cfg.Type {
	case "huggingface":
		return NewHuggingFaceClient(HuggingFaceConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			EndpointURL: cfg.EndpointURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		})
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		})
	case "mock":
		return NewMockClient()
	default:
		return nil
	}
}

// needsUpdate checks if an LLM client needs to be recreated.
func needsUpdate(client LLMClient, cfg ProviderConfig) bool {
	switch c := client.(type) {
	case *HuggingFaceClient:
		return c.apiKey != cfg.APIKey ||
			c.model != cfg.Model ||
			c.endpointURL != cfg.EndpointURL
	case *OpenAIClient:
		return c.apiKey != cfg.APIKey ||
			c.model != cfg.Model
	case *MockClient:
		return false
	default:
		return true
	}
}
