package sectionizer

import "strings"

// SectionMap maps every content section id of a catalog to its extracted
// text. Every declared content section is present; sections without a
// matching header hold the empty string. Callers must treat a returned
// map as read-only.
type SectionMap map[string]string

// emptySections returns a SectionMap with every content key present.
func (c *Catalog) emptySections() SectionMap {
	sections := make(SectionMap, len(c.defs))
	for _, id := range c.ContentSections() {
		sections[id] = ""
	}
	return sections
}

// partition slices text between consecutive boundaries and accumulates
// the slices into a SectionMap.
//
// Boundary-only slices are dropped: they exist to cap the preceding
// slice. Every content slice is additionally truncated at the first
// nested occurrence of another catalog header inside its own text,
// which catches headers that appear mid-line after trailing content
// (an "Attending:" tail on an allergy line, for example) rather than
// at a line start where Locate would have claimed them.
func (c *Catalog) partition(text string, matches []BoundaryMatch) SectionMap {
	sections := c.emptySections()

	for i, m := range matches {
		if c.roles[m.SectionID] == RoleBoundary {
			continue
		}

		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1].Start
		}
		slice := strings.TrimSpace(text[m.End:end])
		slice = strings.TrimSpace(c.truncateAtNestedHeader(slice, m.SectionID))
		if slice == "" {
			continue
		}

		if existing := sections[m.SectionID]; existing != "" {
			sections[m.SectionID] = existing + "\n\n" + slice
		} else {
			sections[m.SectionID] = slice
		}
	}

	return sections
}

// truncateAtNestedHeader cuts slice at the earliest occurrence of any
// header variant belonging to a different section. Occurrences of the
// slice's own section are left alone; a line-anchored occurrence would
// already have been a formal boundary.
func (c *Catalog) truncateAtNestedHeader(slice, sectionID string) string {
	cut := len(slice)
	for _, m := range c.matchers {
		if m.id == sectionID {
			continue
		}
		if loc := m.loose.FindStringIndex(slice); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	return slice[:cut]
}
