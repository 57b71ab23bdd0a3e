// Package sectionizer partitions free-text clinical notes into a fixed
// taxonomy of named sections by header-pattern matching.
//
// The pipeline is: locate every header occurrence, slice the text
// between consecutive boundaries, and accumulate slices per canonical
// section id. A note with no recognizable headers degrades to a weaker
// per-section regex pass; a note matching nothing at all yields a map
// of empty strings, never an error. All entry points are pure functions
// of (text, catalog) and safe for concurrent use across documents.
package sectionizer

import "strings"

// Sectionize splits rawText into the canonical sections for the given
// note type. The returned map contains every declared content section,
// mapped to the empty string when the note has no matching header.
// It returns an error only for an unknown note type.
func Sectionize(noteType NoteType, rawText string) (SectionMap, error) {
	catalog, err := CatalogFor(noteType)
	if err != nil {
		return nil, err
	}
	return catalog.Sectionize(rawText), nil
}

// Sectionize splits rawText against this catalog.
func (c *Catalog) Sectionize(rawText string) SectionMap {
	if strings.TrimSpace(rawText) == "" {
		return c.emptySections()
	}

	matches := c.Locate(rawText)
	if len(matches) == 0 {
		return c.fallbackExtract(rawText)
	}
	return c.partition(rawText, matches)
}
