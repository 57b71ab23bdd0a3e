// Package pipeline wires the note store, sectionizer, prompt assembly
// and an LLM client into the end-to-end simplification flow.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/carenotes/carenotes/internal/normalize"
	"github.com/carenotes/carenotes/internal/notestore"
	"github.com/carenotes/carenotes/internal/prompts"
	"github.com/carenotes/carenotes/internal/providers"
	"github.com/carenotes/carenotes/internal/sectionizer"
)

// NoteStore is the subset of the note store the pipeline needs.
type NoteStore interface {
	Get(ctx context.Context, key string) (*notestore.NoteRecord, error)
	Set(ctx context.Context, key string, record *notestore.NoteRecord) error
}

// Config holds pipeline configuration.
type Config struct {
	// MaxPromptChars bounds the rendered user prompt. Zero disables
	// trimming.
	MaxPromptChars int

	// PersistSections writes freshly sectionized records back to the
	// store so later requests skip the raw-text path.
	PersistSections bool
}

// Pipeline runs the fetch, sectionize, prompt and generate steps for
// one note at a time. It is safe for concurrent use.
type Pipeline struct {
	store     NoteStore
	client    providers.LLMClient
	assembler *prompts.Assembler
	cfg       Config
	logger    *slog.Logger
}

// New creates a pipeline.
func New(store NoteStore, client providers.LLMClient, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:     store,
		client:    client,
		assembler: prompts.NewAssembler(cfg.MaxPromptChars),
		cfg:       cfg,
		logger:    logger,
	}
}

// Result is the outcome of one simplification run.
type Result struct {
	NoteID string `json:"note_id"`
	HadmID string `json:"hadm_id"`

	Sections sectionizer.SectionMap `json:"sections"`

	Output    *Simplified `json:"output"`
	RawOutput string      `json:"raw_output"`

	Provider   string        `json:"provider"`
	ModelUsed  string        `json:"model_used"`
	PromptHash string        `json:"prompt_hash"`
	Attempts   int           `json:"attempts"`
	TotalTime  time.Duration `json:"total_time"`
}

// Process simplifies the note stored under <noteID>_<hadmID>.
//
// Failures keep their kind: store misses surface notestore.ErrNotFound,
// provider failures surface the providers sentinels, and unusable model
// output surfaces ErrInvalidOutput. Nothing here retries; the store and
// provider clients already bound their own retries.
func (p *Pipeline) Process(ctx context.Context, noteID, hadmID string) (*Result, error) {
	key := noteID + "_" + hadmID
	log := p.logger.With("note_id", noteID, "hadm_id", hadmID)

	record, err := p.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}

	sections, fresh, err := p.sections(record)
	if err != nil {
		return nil, err
	}
	for id, body := range sections {
		sections[id] = normalize.Normalize(body, normalize.ProfileBasic)
	}

	if fresh && p.cfg.PersistSections {
		p.persist(ctx, key, record, sections)
	}

	bundle, err := p.assembler.Assemble(sections)
	if err != nil {
		return nil, err
	}

	gen, err := p.client.Generate(ctx, &providers.GenerateRequest{
		System: bundle.System,
		User:   bundle.User,
	})
	if err != nil {
		return nil, fmt.Errorf("generate for %s: %w", key, err)
	}

	output, err := ParseOutput(gen.Text)
	if err != nil {
		log.Warn("model output failed validation", "error", err)
		return nil, err
	}

	log.Info("note simplified",
		"provider", gen.Provider,
		"model", gen.ModelUsed,
		"attempts", gen.Attempts,
		"total_time", gen.TotalTime)

	return &Result{
		NoteID:     noteID,
		HadmID:     hadmID,
		Sections:   sections,
		Output:     output,
		RawOutput:  gen.Text,
		Provider:   gen.Provider,
		ModelUsed:  gen.ModelUsed,
		PromptHash: bundle.TemplateHash,
		Attempts:   gen.Attempts,
		TotalTime:  gen.TotalTime,
	}, nil
}

// sections returns the record's section map, sectionizing the raw text
// when no pre-sectionized map is stored. fresh reports whether the map
// was computed here.
func (p *Pipeline) sections(record *notestore.NoteRecord) (sectionizer.SectionMap, bool, error) {
	if len(record.Sections) > 0 {
		sections := make(sectionizer.SectionMap, len(record.Sections))
		for id, body := range record.Sections {
			sections[id] = body
		}
		return sections, false, nil
	}

	noteType := sectionizer.NoteType(record.NoteType)
	if _, err := sectionizer.CatalogFor(noteType); err != nil {
		// Records ingested from MIMIC exports label discharge
		// summaries "DS".
		noteType = sectionizer.NoteTypeDischarge
	}

	sections, err := sectionizer.Sectionize(noteType, record.Text)
	if err != nil {
		return nil, false, err
	}
	return sections, true, nil
}

// persist writes the sectionized record back so later requests skip
// the raw-text path. Failures are logged, not fatal.
func (p *Pipeline) persist(ctx context.Context, key string, record *notestore.NoteRecord, sections sectionizer.SectionMap) {
	updated := *record
	updated.Sections = sections
	updated.Summarize()

	if err := p.store.Set(ctx, key, &updated); err != nil {
		p.logger.Warn("failed to persist sections", "key", key, "error", err)
	}
}
