package sectionizer

import "sort"

// BoundaryMatch is one occurrence of a header variant in the raw text.
// Start and End are byte offsets of the header text itself in the
// original, unmodified input.
type BoundaryMatch struct {
	Start     int
	End       int
	SectionID string
}

// candidate carries catalog declaration order through the merge sort so
// ties at the same offset resolve deterministically.
type candidate struct {
	BoundaryMatch
	order int
}

// Locate scans text for every occurrence of every header variant and
// returns the merged boundary list in ascending start order.
//
// When two variants match at the same start offset (e.g. "EXAM:" inside
// "EXAMINATION:"), only the longest match survives; remaining ties go to
// the earliest-declared definition. Repeated occurrences of the same
// section are all kept - the partitioner merges them later.
func (c *Catalog) Locate(text string) []BoundaryMatch {
	if text == "" {
		return nil
	}

	var cands []candidate
	for _, m := range c.matchers {
		for _, loc := range m.anchored.FindAllStringSubmatchIndex(text, -1) {
			// Group 1 is the header text without leading indent.
			cands = append(cands, candidate{
				BoundaryMatch: BoundaryMatch{Start: loc[2], End: loc[3], SectionID: m.id},
				order:         m.order,
			})
		}
	}
	if len(cands) == 0 {
		return nil
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Start != cands[j].Start {
			return cands[i].Start < cands[j].Start
		}
		li, lj := cands[i].End-cands[i].Start, cands[j].End-cands[j].Start
		if li != lj {
			return li > lj
		}
		return cands[i].order < cands[j].order
	})

	matches := make([]BoundaryMatch, 0, len(cands))
	lastStart := -1
	for _, cand := range cands {
		// One physical occurrence yields one boundary.
		if cand.Start == lastStart {
			continue
		}
		matches = append(matches, cand.BoundaryMatch)
		lastStart = cand.Start
	}
	return matches
}
