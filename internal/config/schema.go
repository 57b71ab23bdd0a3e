package config

// Config holds carenotes configuration.
// Stored at: ./config.yaml or ~/.carenotes/config.yaml
type Config struct {
	Providers map[string]ProviderCfg `mapstructure:"providers" yaml:"providers"`
	Defaults  DefaultsCfg            `mapstructure:"defaults" yaml:"defaults"`
	Store     StoreCfg               `mapstructure:"store" yaml:"store"`
	Pipeline  PipelineCfg            `mapstructure:"pipeline" yaml:"pipeline"`
	Server    ServerCfg              `mapstructure:"server" yaml:"server"`
}

// ProviderCfg configures an LLM provider.
type ProviderCfg struct {
	Type        string  `mapstructure:"type" yaml:"type"`                 // "huggingface", "openai", "mock"
	Model       string  `mapstructure:"model" yaml:"model"`               // Model name
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`           // API key (supports ${ENV_VAR} syntax)
	EndpointURL string  `mapstructure:"endpoint_url" yaml:"endpoint_url"` // Dedicated inference endpoint (huggingface)
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	TopP        float64 `mapstructure:"top_p" yaml:"top_p"`
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default selections.
type DefaultsCfg struct {
	Provider   string `mapstructure:"provider" yaml:"provider"`       // Default LLM provider
	MaxWorkers int    `mapstructure:"max_workers" yaml:"max_workers"` // Max concurrent ingest workers
}

// StoreCfg holds note store connection configuration.
type StoreCfg struct {
	ProjectID  string `mapstructure:"project_id" yaml:"project_id"`
	Collection string `mapstructure:"collection" yaml:"collection"`
	Token      string `mapstructure:"token" yaml:"token"` // Bearer token (supports ${ENV_VAR} syntax)
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
}

// PipelineCfg holds simplification pipeline configuration.
type PipelineCfg struct {
	MaxPromptChars  int  `mapstructure:"max_prompt_chars" yaml:"max_prompt_chars"`
	PersistSections bool `mapstructure:"persist_sections" yaml:"persist_sections"`
}

// ServerCfg holds HTTP server configuration.
type ServerCfg struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Providers: map[string]ProviderCfg{
			"huggingface": {
				Type:        "huggingface",
				Model:       "johnsnowlabs/JSL-MedLlama-3-8B-v2.0",
				APIKey:      "${HF_API_TOKEN}",
				MaxTokens:   900,
				Temperature: 0.2,
				TopP:        0.95,
				Enabled:     true,
			},
			"openai": {
				Type:        "openai",
				Model:       "gpt-4o-mini",
				APIKey:      "${OPENAI_API_KEY}",
				MaxTokens:   900,
				Temperature: 0.2,
				Enabled:     false,
			},
		},
		Defaults: DefaultsCfg{
			Provider:   "huggingface",
			MaxWorkers: 8,
		},
		Store: StoreCfg{
			ProjectID:  "",
			Collection: "discharge_notes",
			Token:      "${FIRESTORE_TOKEN}",
		},
		Pipeline: PipelineCfg{
			MaxPromptChars:  12000,
			PersistSections: true,
		},
		Server: ServerCfg{
			Addr: ":8080",
		},
	}
}

// GetProvider returns a provider config by name.
func (c *Config) GetProvider(name string) (ProviderCfg, bool) {
	cfg, ok := c.Providers[name]
	return cfg, ok
}

// EnabledProviders returns all enabled providers.
func (c *Config) EnabledProviders() map[string]ProviderCfg {
	result := make(map[string]ProviderCfg)
	for name, cfg := range c.Providers {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
