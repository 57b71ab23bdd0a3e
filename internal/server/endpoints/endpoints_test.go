package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/carenotes/carenotes/internal/config"
	"github.com/carenotes/carenotes/internal/notestore"
	"github.com/carenotes/carenotes/internal/providers"
	"github.com/carenotes/carenotes/internal/svcctx"
)

const mockModelOutput = `{
  "summary": ["You were treated for pneumonia."],
  "actions": [{"task": "See your doctor", "when": "in 2 weeks", "who": "primary care"}],
  "medications": [{"name": "Amoxicillin", "why": "infection", "how_to_take": "by mouth", "schedule": "twice daily", "cautions": "finish the course"}],
  "glossary": [{"term": "pneumonia", "plain": "a lung infection"}]
}`

// newTestMux builds the endpoint mux backed by a fake note store and a
// mock provider.
func newTestMux(t *testing.T, mock *providers.MockClient) *http.ServeMux {
	t.Helper()

	// Fake document store: one known record, 404 otherwise.
	fake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "PATCH" {
			w.Write([]byte(`{}`))
			return
		}
		if strings.HasSuffix(r.URL.Path, "/discharge_notes/n1_h1") {
			w.Write([]byte(`{"fields": {
				"note_id": {"stringValue": "n1"},
				"hadm_id": {"stringValue": "h1"},
				"note_type": {"stringValue": "DS"},
				"note_text": {"stringValue": "Discharge Diagnosis:\nPneumonia\n"}
			}}`))
			return
		}
		if strings.Contains(r.URL.Path, "/discharge_notes/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{}`)) // collection list (health check)
	}))
	t.Cleanup(fake.Close)

	store := notestore.NewClient(notestore.Config{
		ProjectID:  "test",
		BaseURL:    fake.URL,
		RetryDelay: time.Millisecond,
	})

	registry := providers.NewRegistry()
	registry.Register("mock", mock)

	cm, err := config.NewManager("")
	if err != nil {
		t.Fatalf("config.NewManager() error = %v", err)
	}

	services := &svcctx.Services{
		Store:         store,
		Registry:      registry,
		ConfigManager: cm,
	}

	mux := http.NewServeMux()
	for _, ep := range All() {
		method, path, handler := ep.Route()
		mux.HandleFunc(method+" "+path, handler)
	}

	outer := http.NewServeMux()
	outer.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(svcctx.WithServices(r.Context(), services)))
	}))
	return outer
}

func TestHealthEndpoints(t *testing.T) {
	mux := newTestMux(t, providers.NewMockClient())

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp HealthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Status != "ok" {
			t.Errorf("Status = %q", resp.Status)
		}
	})

	t.Run("ready", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/ready", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("status lists providers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/status", nil))
		var resp StatusResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if len(resp.Providers) != 1 || resp.Providers[0] != "mock" {
			t.Errorf("Providers = %v", resp.Providers)
		}
		if resp.Store.Health != "healthy" {
			t.Errorf("Store.Health = %q", resp.Store.Health)
		}
	})
}

func TestSimplifyEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ResponseText = mockModelOutput
		mux := newTestMux(t, mock)

		body := `{"note_id": "n1", "hadm_id": "h1", "provider": "mock"}`
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/simplify", strings.NewReader(body)))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var resp SimplifyResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if !resp.Success || resp.Data == nil {
			t.Fatalf("resp = %+v", resp)
		}
		if len(resp.Data.Output.Summary) != 1 {
			t.Errorf("Summary = %v", resp.Data.Output.Summary)
		}
	})

	t.Run("missing ids", func(t *testing.T) {
		mux := newTestMux(t, providers.NewMockClient())
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/simplify", strings.NewReader(`{"note_id": "n1"}`)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("note not found", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ResponseText = mockModelOutput
		mux := newTestMux(t, mock)

		body := `{"note_id": "missing", "hadm_id": "h9", "provider": "mock"}`
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/simplify", strings.NewReader(body)))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var resp SimplifyResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(resp.Error, "not found") {
			t.Errorf("Error = %q", resp.Error)
		}
	})

	t.Run("quota error is translated", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ShouldFail = true
		mock.FailWith = providers.ErrQuotaExceeded
		mux := newTestMux(t, mock)

		body := `{"note_id": "n1", "hadm_id": "h1", "provider": "mock"}`
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/simplify", strings.NewReader(body)))

		if rec.Code != http.StatusPaymentRequired {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp SimplifyResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(resp.Error, "credits") {
			t.Errorf("Error = %q", resp.Error)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		mux := newTestMux(t, providers.NewMockClient())
		body := `{"note_id": "n1", "hadm_id": "h1", "provider": "nope"}`
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/simplify", strings.NewReader(body)))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestSectionizeEndpoint(t *testing.T) {
	mux := newTestMux(t, providers.NewMockClient())

	body := `{"note_type": "radiology", "text": "FINDINGS:\nClear lungs.\n\nIMPRESSION:\nNo acute disease.\n"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/sectionize", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp SectionizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Sections["Findings"] != "Clear lungs." {
		t.Errorf("Findings = %q", resp.Sections["Findings"])
	}
	if resp.Sections["Impression"] != "No acute disease." {
		t.Errorf("Impression = %q", resp.Sections["Impression"])
	}

	t.Run("unknown note type", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/sectionize", strings.NewReader(`{"note_type": "progress", "text": "x"}`)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestGetNoteEndpoint(t *testing.T) {
	mux := newTestMux(t, providers.NewMockClient())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/notes/n1_h1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp NoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Key != "n1_h1" || resp.NoteType != "DS" {
		t.Errorf("resp = %+v", resp)
	}

	t.Run("missing note", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/notes/nope", nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}
