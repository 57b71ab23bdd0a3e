package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("TEST_API_KEY", "secret-123")
	t.Setenv("TEST_OTHER", "other")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single var", "${TEST_API_KEY}", "secret-123"},
		{"embedded var", "Bearer ${TEST_API_KEY}", "Bearer secret-123"},
		{"two vars", "${TEST_API_KEY}-${TEST_OTHER}", "secret-123-other"},
		{"unset var", "${TEST_UNSET_VAR}", ""},
		{"no vars", "plain-value", "plain-value"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveEnvVars(tt.in); got != tt.want {
				t.Errorf("ResolveEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Defaults.Provider != "huggingface" {
		t.Errorf("default provider = %q", cfg.Defaults.Provider)
	}
	hf, ok := cfg.GetProvider("huggingface")
	if !ok || !hf.Enabled {
		t.Fatalf("huggingface provider = %+v, ok = %v", hf, ok)
	}
	if !strings.Contains(hf.APIKey, "${") {
		t.Errorf("default API key should reference an env var: %q", hf.APIKey)
	}
	if cfg.Store.Collection != "discharge_notes" {
		t.Errorf("store collection = %q", cfg.Store.Collection)
	}

	enabled := cfg.EnabledProviders()
	if _, ok := enabled["huggingface"]; !ok {
		t.Error("EnabledProviders() missing huggingface")
	}
	if _, ok := enabled["openai"]; ok {
		t.Error("EnabledProviders() includes disabled openai")
	}
}

func TestToProviderRegistryConfig(t *testing.T) {
	t.Setenv("TEST_HF_TOKEN", "hf-token")

	cfg := &Config{
		Providers: map[string]ProviderCfg{
			"hf": {
				Type:    "huggingface",
				Model:   "test-model",
				APIKey:  "${TEST_HF_TOKEN}",
				Enabled: true,
			},
		},
	}

	reg := cfg.ToProviderRegistryConfig()
	hf, ok := reg.Providers["hf"]
	if !ok {
		t.Fatal("provider hf missing from registry config")
	}
	if hf.APIKey != "hf-token" {
		t.Errorf("APIKey = %q, want resolved env var", hf.APIKey)
	}
	if hf.Model != "test-model" {
		t.Errorf("Model = %q", hf.Model)
	}
}

func TestToStoreConfig(t *testing.T) {
	t.Setenv("TEST_STORE_TOKEN", "store-token")

	cfg := &Config{Store: StoreCfg{
		ProjectID:  "proj",
		Collection: "notes",
		Token:      "${TEST_STORE_TOKEN}",
	}}

	store := cfg.ToStoreConfig()
	if store.Token != "store-token" {
		t.Errorf("Token = %q, want resolved env var", store.Token)
	}
	if store.ProjectID != "proj" || store.Collection != "notes" {
		t.Errorf("store config = %+v", store)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{"providers:", "huggingface", "store:", "discharge_notes"} {
		if !strings.Contains(content, want) {
			t.Errorf("written config missing %q", want)
		}
	}
}
