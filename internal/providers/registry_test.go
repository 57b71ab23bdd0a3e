package providers

import (
	"context"
	"errors"
	"testing"
)

func TestRegistry(t *testing.T) {
	t.Run("register and get", func(t *testing.T) {
		r := NewRegistry()
		mock := NewMockClient()

		r.Register("test-llm", mock)

		client, err := r.Get("test-llm")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if client != mock {
			t.Error("got different client than registered")
		}
	})

	t.Run("get nonexistent", func(t *testing.T) {
		r := NewRegistry()

		_, err := r.Get("nonexistent")
		if err == nil {
			t.Error("expected error for nonexistent client")
		}
	})

	t.Run("list and has", func(t *testing.T) {
		r := NewRegistry()
		r.Register("llm1", NewMockClient())
		r.Register("llm2", NewMockClient())

		if got := len(r.List()); got != 2 {
			t.Errorf("List() returned %d items, want 2", got)
		}
		if !r.Has("llm1") {
			t.Error("Has() = false for registered client")
		}
		if r.Has("other") {
			t.Error("Has() = true for unregistered client")
		}
	})

	t.Run("unregister", func(t *testing.T) {
		r := NewRegistry()
		r.Register("llm1", NewMockClient())
		r.Unregister("llm1")

		if r.Has("llm1") {
			t.Error("Has() = true after Unregister()")
		}
	})
}

func TestRegistryFromConfig(t *testing.T) {
	cfg := RegistryConfig{
		Providers: map[string]ProviderConfig{
			"hf": {
				Type:    "huggingface",
				Model:   "test-model",
				APIKey:  "key",
				Enabled: true,
			},
			"disabled": {
				Type:    "huggingface",
				Model:   "test-model",
				APIKey:  "key",
				Enabled: false,
			},
			"no-key": {
				Type:    "openai",
				Model:   "test-model",
				Enabled: true,
			},
			"mock": {
				Type:    "mock",
				Enabled: true,
			},
		},
	}

	r := NewRegistryFromConfig(cfg)

	if !r.Has("hf") {
		t.Error("expected hf client to be registered")
	}
	if r.Has("disabled") {
		t.Error("disabled provider should not be registered")
	}
	if r.Has("no-key") {
		t.Error("provider without API key should not be registered")
	}
	if !r.Has("mock") {
		t.Error("mock provider needs no API key")
	}
}

func TestRegistryReload(t *testing.T) {
	r := NewRegistryFromConfig(RegistryConfig{
		Providers: map[string]ProviderConfig{
			"hf": {Type: "huggingface", Model: "m1", APIKey: "key", Enabled: true},
		},
	})

	before, err := r.Get("hf")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	// Unchanged config keeps the same client instance.
	r.Reload(RegistryConfig{
		Providers: map[string]ProviderConfig{
			"hf": {Type: "huggingface", Model: "m1", APIKey: "key", Enabled: true},
		},
	})
	after, _ := r.Get("hf")
	if before != after {
		t.Error("unchanged config should keep the client instance")
	}

	// Changed model recreates the client; removed providers disappear.
	r.Reload(RegistryConfig{
		Providers: map[string]ProviderConfig{
			"hf": {Type: "huggingface", Model: "m2", APIKey: "key", Enabled: true},
		},
	})
	after, _ = r.Get("hf")
	if before == after {
		t.Error("changed model should recreate the client")
	}

	r.Reload(RegistryConfig{Providers: map[string]ProviderConfig{}})
	if r.Has("hf") {
		t.Error("removed provider should be unregistered")
	}
}

func TestMockClient(t *testing.T) {
	t.Run("returns configured response", func(t *testing.T) {
		mock := NewMockClient()
		mock.ResponseText = "hello"

		result, err := mock.Generate(context.Background(), &GenerateRequest{User: "hi"})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if result.Text != "hello" {
			t.Errorf("Text = %q", result.Text)
		}
		if mock.RequestCount() != 1 {
			t.Errorf("RequestCount() = %d, want 1", mock.RequestCount())
		}
	})

	t.Run("fails with configured error", func(t *testing.T) {
		mock := NewMockClient()
		mock.ShouldFail = true
		mock.FailWith = ErrQuotaExceeded

		_, err := mock.Generate(context.Background(), &GenerateRequest{User: "hi"})
		if !errors.Is(err, ErrQuotaExceeded) {
			t.Fatalf("error = %v, want ErrQuotaExceeded", err)
		}
	})

	t.Run("fails after N requests", func(t *testing.T) {
		mock := NewMockClient()
		mock.FailAfter = 2

		for i := 0; i < 2; i++ {
			if _, err := mock.Generate(context.Background(), &GenerateRequest{User: "hi"}); err != nil {
				t.Fatalf("request %d: %v", i+1, err)
			}
		}
		if _, err := mock.Generate(context.Background(), &GenerateRequest{User: "hi"}); err == nil {
			t.Error("expected failure after configured request count")
		}
	})
}
