package sectionizer

import (
	"regexp"
	"strings"
)

// fallbackExtract is the degraded path used when Locate finds no
// boundaries at all. Each content section is tried independently with
// its own single-occurrence pattern: the section body runs from just
// past the header to the first blank line, the next known header on a
// fresh line, or end of text. The first variant that matches wins and
// the remaining variants for that section are skipped.
//
// Unlike partition, this pass makes no non-overlap guarantee between
// sections; it only recovers the common single-occurrence layout.
func (c *Catalog) fallbackExtract(text string) SectionMap {
	sections := c.emptySections()

	for _, def := range c.defs {
		if def.Role != RoleContent {
			continue
		}
		for _, v := range def.Variants {
			body, ok := c.fallbackSection(text, v, def.ID)
			if ok {
				sections[def.ID] = body
				break
			}
		}
	}

	return sections
}

// fallbackSection extracts one section body for a single header variant.
// The trailing colon is optional here: the header only needs to end its
// line.
func (c *Catalog) fallbackSection(text, variant, sectionID string) (string, bool) {
	pattern := regexp.QuoteMeta(variant)
	if base, ok := strings.CutSuffix(variant, ":"); ok {
		pattern = regexp.QuoteMeta(base) + `:?`
	}
	re := regexp.MustCompile(`(?i)` + pattern + `[ \t]*\n`)
	loc := re.FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	rest := text[loc[1]:]
	end := len(rest)

	if i := strings.Index(rest, "\n\n"); i >= 0 && i < end {
		end = i
	}
	for _, m := range c.matchers {
		if m.id == sectionID {
			continue
		}
		if hdr := m.anchored.FindStringIndex(rest); hdr != nil && hdr[0] < end {
			end = hdr[0]
		}
	}

	body := strings.TrimSpace(rest[:end])
	return body, body != ""
}
