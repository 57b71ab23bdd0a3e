// Package normalize provides the deterministic text cleanup pass applied
// to raw notes and extracted sections before they reach a prompt.
package normalize

import (
	"regexp"
	"strings"
)

// Profile selects a cleaning profile. The pipelines in this repository
// use two: Basic preserves punctuation, Compact additionally strips
// quote, colon and semicolon characters for callers that flatten
// sections into delimiter-sensitive formats.
type Profile string

const (
	ProfileBasic   Profile = "basic"
	ProfileCompact Profile = "compact"
)

var (
	// Runs of 2+ underscores are de-identification placeholders.
	underscoreRun = regexp.MustCompile(`_{2,}`)
	spaceRun      = regexp.MustCompile(` {2,}`)

	newlineReplacer = strings.NewReplacer("\n", " ", "\r", " ")
	dashReplacer    = strings.NewReplacer("—", " ", "–", " ")
	punctReplacer   = strings.NewReplacer(`"`, "", "'", "", ":", "", ";", "")
)

// Normalize cleans text under the given profile. The pipeline order is
// fixed: newlines to spaces, redaction placeholders to spaces, em/en
// dashes to spaces, optional punctuation stripping, space collapsing,
// trim. Unknown profiles behave like ProfileBasic.
//
// Normalize is idempotent: applying it twice under one profile yields
// the same result as applying it once.
func Normalize(text string, profile Profile) string {
	if text == "" {
		return ""
	}

	text = newlineReplacer.Replace(text)
	text = underscoreRun.ReplaceAllString(text, " ")
	text = dashReplacer.Replace(text)
	if profile == ProfileCompact {
		text = punctReplacer.Replace(text)
	}
	text = spaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
