package sectionizer

import (
	"fmt"
	"regexp"
	"strings"
)

// Role describes how a header participates in partitioning.
type Role int

const (
	// RoleContent marks a section whose text is extracted.
	RoleContent Role = iota
	// RoleBoundary marks a header that only terminates the preceding
	// section and contributes no text of its own.
	RoleBoundary
)

// NoteType selects the header vocabulary for a note.
type NoteType string

const (
	NoteTypeDischarge NoteType = "discharge"
	NoteTypeRadiology NoteType = "radiology"
)

// HeaderDefinition maps a canonical section id to the literal header
// variants that denote its start.
type HeaderDefinition struct {
	ID       string
	Variants []string
	Role     Role
}

// variantMatcher holds the compiled patterns for one header variant.
// anchored matches the variant at the start of a line (the boundary
// scan); loose matches it anywhere (the nested-header truncation scan).
type variantMatcher struct {
	id       string
	order    int
	variant  string
	anchored *regexp.Regexp
	loose    *regexp.Regexp
}

// Catalog is an immutable set of header definitions for one note type,
// with all matchers compiled at construction time.
type Catalog struct {
	noteType NoteType
	defs     []HeaderDefinition
	roles    map[string]Role
	matchers []*variantMatcher
}

// NewCatalog compiles a catalog from header definitions.
// Definition order is significant: it breaks ties between boundary
// matches at the same offset.
func NewCatalog(noteType NoteType, defs []HeaderDefinition) (*Catalog, error) {
	c := &Catalog{
		noteType: noteType,
		defs:     defs,
		roles:    make(map[string]Role, len(defs)),
	}

	seen := make(map[string]string)
	for order, def := range defs {
		if _, ok := c.roles[def.ID]; ok {
			return nil, fmt.Errorf("duplicate section id %q in %s catalog", def.ID, noteType)
		}
		c.roles[def.ID] = def.Role

		for _, v := range def.Variants {
			key := strings.ToLower(v)
			if prev, ok := seen[key]; ok {
				return nil, fmt.Errorf("variant %q declared for both %q and %q", v, prev, def.ID)
			}
			seen[key] = def.ID

			c.matchers = append(c.matchers, &variantMatcher{
				id:       def.ID,
				order:    order,
				variant:  v,
				anchored: regexp.MustCompile(`(?mi)^[ \t]*(` + anchoredAlternatives(v) + `)`),
				loose:    regexp.MustCompile(`(?i)` + regexp.QuoteMeta(v)),
			})
		}
	}

	return c, nil
}

// anchoredAlternatives builds the boundary pattern body for one variant.
// A variant ending in a colon also matches without the colon when the
// header stands alone on its line; a colon-less occurrence with content
// on the same line is not a boundary.
func anchoredAlternatives(variant string) string {
	quoted := regexp.QuoteMeta(variant)
	base, ok := strings.CutSuffix(variant, ":")
	if !ok {
		return quoted
	}
	return quoted + `|` + regexp.QuoteMeta(base) + `[ \t]*$`
}

func mustCatalog(noteType NoteType, defs []HeaderDefinition) *Catalog {
	c, err := NewCatalog(noteType, defs)
	if err != nil {
		panic(err)
	}
	return c
}

// NoteType returns the note type this catalog describes.
func (c *Catalog) NoteType() NoteType { return c.noteType }

// Definitions returns the header definitions in declaration order.
func (c *Catalog) Definitions() []HeaderDefinition { return c.defs }

// VariantsFor returns the header variants for a section id, or nil if
// the id is not declared.
func (c *Catalog) VariantsFor(id string) []string {
	for _, def := range c.defs {
		if def.ID == id {
			return def.Variants
		}
	}
	return nil
}

// RoleOf reports the role of a section id.
func (c *Catalog) RoleOf(id string) (Role, bool) {
	role, ok := c.roles[id]
	return role, ok
}

// ContentSections returns the content-bearing section ids in
// declaration order. Boundary-only markers are excluded.
func (c *Catalog) ContentSections() []string {
	ids := make([]string, 0, len(c.defs))
	for _, def := range c.defs {
		if def.Role == RoleContent {
			ids = append(ids, def.ID)
		}
	}
	return ids
}

// CatalogFor returns the shared catalog for a note type.
func CatalogFor(noteType NoteType) (*Catalog, error) {
	switch noteType {
	case NoteTypeDischarge:
		return dischargeCatalog, nil
	case NoteTypeRadiology:
		return radiologyCatalog, nil
	default:
		return nil, fmt.Errorf("unknown note type %q", noteType)
	}
}

// Discharge returns the discharge-summary catalog.
func Discharge() *Catalog { return dischargeCatalog }

// Radiology returns the radiology-report catalog.
func Radiology() *Catalog { return radiologyCatalog }

// Canonical discharge section ids.
const (
	SectionAllergies             = "Allergies"
	SectionChiefComplaint        = "Chief Complaint"
	SectionHistoryPresentIllness = "History of Present Illness"
	SectionPastMedicalHistory    = "Past Medical History"
	SectionPhysicalExam          = "Physical Exam"
	SectionPertinentResults      = "Pertinent Results"
	SectionHospitalCourse        = "Hospital Course"
	SectionDischargeMedications  = "Discharge Medications"
	SectionDischargeDiagnosis    = "Discharge Diagnosis"
	SectionDischargeInstructions = "Discharge Instructions"
	SectionFollowUp              = "Follow-up"
	SectionPendingTests          = "Pending Tests"
	SectionDietActivity          = "Diet/Activity"

	markerAttending = "Attending"
)

// Canonical radiology section ids.
const (
	SectionExamination = "Examination"
	SectionIndication  = "Indication"
	SectionTechnique   = "Technique"
	SectionComparison  = "Comparison"
	SectionFindings    = "Findings"
	SectionProcedure   = "Procedure"
	SectionImpression  = "Impression"
)

var dischargeCatalog = mustCatalog(NoteTypeDischarge, []HeaderDefinition{
	{ID: SectionAllergies, Variants: []string{"Allergies:", "Allergy:", "Allergies / Adverse Drug Reactions:"}},
	{ID: markerAttending, Variants: []string{"Attending:"}, Role: RoleBoundary},
	{ID: SectionChiefComplaint, Variants: []string{"Chief Complaint:"}},
	{ID: SectionHistoryPresentIllness, Variants: []string{"History of Present Illness:"}},
	{ID: SectionPastMedicalHistory, Variants: []string{"Past Medical History:"}},
	{ID: SectionPhysicalExam, Variants: []string{"Physical Exam:", "Physical Examination:"}},
	{ID: SectionPertinentResults, Variants: []string{"Pertinent Results:"}},
	{ID: SectionHospitalCourse, Variants: []string{"Brief Hospital Course:", "Hospital Course:"}},
	{ID: SectionDischargeMedications, Variants: []string{"Discharge Medications:", "Discharge Medication:"}},
	{ID: SectionDischargeDiagnosis, Variants: []string{"Discharge Diagnosis:", "Discharge Diagnoses:"}},
	{ID: SectionDischargeInstructions, Variants: []string{"Discharge Instructions:", "Discharge Instruction:"}},
	{ID: SectionFollowUp, Variants: []string{"Follow-up:", "Followup:", "Follow Up:"}},
	{ID: SectionPendingTests, Variants: []string{"Pending Tests:", "Pending Test:"}},
	{ID: SectionDietActivity, Variants: []string{"Diet:", "Activity:"}},
})

var radiologyCatalog = mustCatalog(NoteTypeRadiology, []HeaderDefinition{
	{ID: SectionExamination, Variants: []string{"EXAMINATION:", "EXAM:"}},
	{ID: SectionIndication, Variants: []string{"INDICATION:", "CLINICAL INDICATION:", "HISTORY:"}},
	{ID: SectionTechnique, Variants: []string{"TECHNIQUE:", "METHOD:"}},
	{ID: SectionComparison, Variants: []string{"COMPARISON:", "PRIOR STUDIES:", "PRIOR STUDY:"}},
	{ID: SectionFindings, Variants: []string{"FINDINGS:", "FINDING:", "DESCRIPTION:"}},
	{ID: SectionProcedure, Variants: []string{"PROCEDURE:", "PROCEDURAL DETAILS:"}},
	{ID: SectionImpression, Variants: []string{"IMPRESSION:", "CONCLUSION:", "INTERPRETATION:"}},
})
