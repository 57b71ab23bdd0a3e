// Package ingest loads MIMIC note exports into the note store.
package ingest

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/carenotes/carenotes/internal/normalize"
	"github.com/carenotes/carenotes/internal/notestore"
	"github.com/carenotes/carenotes/internal/sectionizer"
)

// NoteStore is the subset of the note store ingest needs.
type NoteStore interface {
	Create(ctx context.Context, key string, record *notestore.NoteRecord) error
}

// Request contains the parameters for a batch ingest run.
type Request struct {
	// CSVPath points at a MIMIC note export, gzip-compressed or plain
	// CSV with a header row.
	CSVPath string

	// SubjectID and HadmID filter rows when non-empty.
	SubjectID string
	HadmID    string

	// Limit stops after N uploaded or skipped rows. Zero means all.
	Limit int

	// Workers bounds concurrent uploads.
	Workers int

	Logger *slog.Logger
}

// Result tallies one ingest run.
type Result struct {
	Success int
	Skipped int
	Failed  int
}

// Total returns the number of rows that reached the upload stage.
func (r *Result) Total() int {
	return r.Success + r.Skipped + r.Failed
}

// Ingest reads the export row by row, sectionizes and cleans each note,
// and uploads records concurrently. Rows already in the store count as
// skipped, not failed.
func Ingest(ctx context.Context, store NoteStore, req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}
	workers := req.Workers
	if workers <= 0 {
		workers = 8
	}

	rows, closer, err := openCSV(req.CSVPath)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	header, err := rows.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	log.Info("starting ingest", "path", filepath.Base(req.CSVPath), "workers", workers)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		tally Result
	)
	sem := make(chan struct{}, workers)

	count := func(bucket *int) {
		mu.Lock()
		*bucket++
		mu.Unlock()
	}

	dispatched := 0
	for {
		if ctx.Err() != nil {
			break
		}
		if req.Limit > 0 && dispatched >= req.Limit {
			break
		}

		row, err := rows.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn("skipping malformed row", "error", err)
			count(&tally.Failed)
			continue
		}

		record := rowRecord(idx, row)
		if req.SubjectID != "" && record.SubjectID != req.SubjectID {
			continue
		}
		if req.HadmID != "" && record.HadmID != req.HadmID {
			continue
		}
		if record.NoteID == "" || record.HadmID == "" {
			count(&tally.Failed)
			continue
		}

		sectionizeRecord(record)
		dispatched++

		wg.Add(1)
		sem <- struct{}{} // acquire
		go func(record *notestore.NoteRecord) {
			defer wg.Done()
			defer func() { <-sem }() // release

			err := store.Create(ctx, record.Key(), record)
			switch {
			case err == nil:
				count(&tally.Success)
			case errors.Is(err, notestore.ErrAlreadyExists):
				count(&tally.Skipped)
			default:
				log.Warn("upload failed", "key", record.Key(), "error", err)
				count(&tally.Failed)
			}
		}(record)
	}

	wg.Wait()

	log.Info("ingest complete",
		"success", tally.Success,
		"skipped", tally.Skipped,
		"failed", tally.Failed)
	return &tally, ctx.Err()
}

// openCSV opens a plain or gzip-compressed CSV file.
func openCSV(path string) (*csv.Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open export: %w", err)
	}

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		reader = gz
	}

	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	return r, f, nil
}

// exportColumns are the columns ingest consumes.
var exportColumns = []string{"note_id", "subject_id", "hadm_id", "note_type", "charttime", "storetime", "text"}

// columnIndex maps column names to their positions, requiring note_id,
// hadm_id and text.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"note_id", "hadm_id", "text"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("export is missing column %q", required)
		}
	}
	return idx, nil
}

func rowRecord(idx map[string]int, row []string) *notestore.NoteRecord {
	field := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	noteType := field("note_type")
	if noteType == "" {
		noteType = "DS"
	}

	return &notestore.NoteRecord{
		NoteID:    field("note_id"),
		SubjectID: field("subject_id"),
		HadmID:    field("hadm_id"),
		NoteType:  noteType,
		CharTime:  field("charttime"),
		StoreTime: field("storetime"),
		Text:      field("text"),
	}
}

// sectionizeRecord extracts and cleans the record's sections and fills
// the section summary. Unrecognized note types fall back to the
// discharge catalog.
func sectionizeRecord(record *notestore.NoteRecord) {
	noteType := sectionizer.NoteType(record.NoteType)
	catalog, err := sectionizer.CatalogFor(noteType)
	if err != nil {
		catalog = sectionizer.Discharge()
	}

	sections := catalog.Sectionize(record.Text)
	for id, body := range sections {
		sections[id] = normalize.Normalize(body, normalize.ProfileBasic)
	}
	record.Sections = sections
	record.Summarize()
}
