package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/carenotes/carenotes/internal/notestore"
	"github.com/carenotes/carenotes/internal/providers"
	"github.com/carenotes/carenotes/internal/sectionizer"
)

const validOutput = `{
  "summary": ["You were treated for pneumonia.", "You are ready to go home."],
  "actions": [{"task": "See your doctor", "when": "in 2 weeks", "who": "primary care"}],
  "medications": [{"name": "Amoxicillin", "why": "to treat infection", "how_to_take": "by mouth", "schedule": "twice daily", "cautions": "finish the course"}],
  "glossary": [{"term": "pneumonia", "plain": "a lung infection"}]
}`

// fakeStore is an in-memory NoteStore.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]*notestore.NoteRecord
	sets    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*notestore.NoteRecord)}
}

func (s *fakeStore) Get(ctx context.Context, key string) (*notestore.NoteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	if !ok {
		return nil, notestore.ErrNotFound
	}
	return record, nil
}

func (s *fakeStore) Set(ctx context.Context, key string, record *notestore.NoteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = record
	s.sets++
	return nil
}

func TestProcess(t *testing.T) {
	t.Run("pre-sectionized record", func(t *testing.T) {
		store := newFakeStore()
		store.records["n1_h1"] = &notestore.NoteRecord{
			NoteID: "n1",
			HadmID: "h1",
			Sections: map[string]string{
				sectionizer.SectionDischargeDiagnosis: "Pneumonia",
				sectionizer.SectionHospitalCourse:     "Treated with\nIV antibiotics.",
			},
		}
		mock := providers.NewMockClient()
		mock.ResponseText = validOutput

		p := New(store, mock, Config{}, nil)
		result, err := p.Process(context.Background(), "n1", "h1")
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}

		if result.Output == nil || len(result.Output.Summary) != 2 {
			t.Fatalf("Output = %+v", result.Output)
		}
		if result.Output.Medications[0].HowToTake != "by mouth" {
			t.Errorf("HowToTake = %q", result.Output.Medications[0].HowToTake)
		}
		// Stored sections still get normalized before prompting.
		if got := result.Sections[sectionizer.SectionHospitalCourse]; got != "Treated with IV antibiotics." {
			t.Errorf("normalized section = %q", got)
		}
		if result.PromptHash == "" {
			t.Error("PromptHash not recorded")
		}
		if store.sets != 0 {
			t.Errorf("store.sets = %d, want 0 for pre-sectionized record", store.sets)
		}
	})

	t.Run("raw text record is sectionized and persisted", func(t *testing.T) {
		store := newFakeStore()
		store.records["n2_h2"] = &notestore.NoteRecord{
			NoteID:   "n2",
			HadmID:   "h2",
			NoteType: "DS",
			Text:     "Discharge Diagnosis:\nPneumonia\n\nDischarge Medications:\nAmoxicillin 500mg\n",
		}
		mock := providers.NewMockClient()
		mock.ResponseText = validOutput

		p := New(store, mock, Config{PersistSections: true}, nil)
		result, err := p.Process(context.Background(), "n2", "h2")
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}

		if got := result.Sections[sectionizer.SectionDischargeDiagnosis]; got != "Pneumonia" {
			t.Errorf("diagnosis section = %q", got)
		}
		if store.sets != 1 {
			t.Errorf("store.sets = %d, want 1", store.sets)
		}
		persisted := store.records["n2_h2"]
		if persisted.Sections[sectionizer.SectionDischargeMedications] != "Amoxicillin 500mg" {
			t.Errorf("persisted sections = %v", persisted.Sections)
		}
		if !persisted.SectionSummary[sectionizer.SectionDischargeDiagnosis].HasContent {
			t.Error("persisted summary missing content flag")
		}
	})

	t.Run("missing record", func(t *testing.T) {
		p := New(newFakeStore(), providers.NewMockClient(), Config{}, nil)
		_, err := p.Process(context.Background(), "nope", "nope")
		if !errors.Is(err, notestore.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("provider failure keeps its kind", func(t *testing.T) {
		store := newFakeStore()
		store.records["n_h"] = &notestore.NoteRecord{NoteID: "n", HadmID: "h", Text: "x"}
		mock := providers.NewMockClient()
		mock.ShouldFail = true
		mock.FailWith = providers.ErrQuotaExceeded

		p := New(store, mock, Config{}, nil)
		_, err := p.Process(context.Background(), "n", "h")
		if !errors.Is(err, providers.ErrQuotaExceeded) {
			t.Fatalf("error = %v, want ErrQuotaExceeded", err)
		}
	})

	t.Run("invalid model output", func(t *testing.T) {
		store := newFakeStore()
		store.records["n_h"] = &notestore.NoteRecord{NoteID: "n", HadmID: "h", Text: "x"}
		mock := providers.NewMockClient()
		mock.ResponseText = "I am sorry, I cannot do that."

		p := New(store, mock, Config{}, nil)
		_, err := p.Process(context.Background(), "n", "h")
		if !errors.Is(err, ErrInvalidOutput) {
			t.Fatalf("error = %v, want ErrInvalidOutput", err)
		}
	})

	t.Run("schema violation", func(t *testing.T) {
		store := newFakeStore()
		store.records["n_h"] = &notestore.NoteRecord{NoteID: "n", HadmID: "h", Text: "x"}
		mock := providers.NewMockClient()
		mock.ResponseText = `{"summary": [], "actions": [], "medications": [], "glossary": []}`

		p := New(store, mock, Config{}, nil)
		_, err := p.Process(context.Background(), "n", "h")
		if !errors.Is(err, ErrInvalidOutput) {
			t.Fatalf("error = %v, want ErrInvalidOutput", err)
		}
	})
}

func TestParseOutput(t *testing.T) {
	t.Run("fenced output", func(t *testing.T) {
		out, err := ParseOutput("```json\n" + validOutput + "\n```")
		if err != nil {
			t.Fatalf("ParseOutput() error = %v", err)
		}
		if out.Glossary[0].Term != "pneumonia" {
			t.Errorf("Term = %q", out.Glossary[0].Term)
		}
	})

	t.Run("bare fence", func(t *testing.T) {
		if _, err := ParseOutput("```\n" + validOutput + "\n```"); err != nil {
			t.Fatalf("ParseOutput() error = %v", err)
		}
	})

	t.Run("unfenced output", func(t *testing.T) {
		if _, err := ParseOutput(validOutput); err != nil {
			t.Fatalf("ParseOutput() error = %v", err)
		}
	})
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{}\n```", "{}"},
		{"plain fence", "```\n{}\n```", "{}"},
		{"no fence", "  {}  ", "{}"},
		{"unterminated fence", "```json\n{}", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResponseSchemaRejectsMissingKeys(t *testing.T) {
	raw := `{"summary": ["ok"], "actions": []}`
	_, err := ParseOutput(raw)
	if !errors.Is(err, ErrInvalidOutput) {
		t.Fatalf("error = %v, want ErrInvalidOutput", err)
	}
	if !strings.Contains(err.Error(), "medications") && !strings.Contains(err.Error(), "required") {
		t.Errorf("error should mention the missing keys: %v", err)
	}
}
