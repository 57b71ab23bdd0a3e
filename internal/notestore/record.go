package notestore

import "strconv"

// NoteRecord is one clinical note document. A record carries either the
// raw note text, a pre-sectionized map, or both.
type NoteRecord struct {
	NoteID    string
	SubjectID string
	HadmID    string
	NoteType  string
	CharTime  string
	StoreTime string

	Text     string
	Sections map[string]string

	// SectionSummary records per-section length and presence, written
	// at ingest time so readers can skip empty sections cheaply.
	SectionSummary map[string]SectionStat
}

// SectionStat summarizes one extracted section.
type SectionStat struct {
	Length     int
	HasContent bool
}

// Key returns the document key for this record.
func (r *NoteRecord) Key() string {
	return r.NoteID + "_" + r.HadmID
}

// Summarize rebuilds SectionSummary from Sections.
func (r *NoteRecord) Summarize() {
	if r.Sections == nil {
		r.SectionSummary = nil
		return
	}
	r.SectionSummary = make(map[string]SectionStat, len(r.Sections))
	for id, body := range r.Sections {
		r.SectionSummary[id] = SectionStat{
			Length:     len(body),
			HasContent: body != "",
		}
	}
}

// Firestore REST value encoding. Only the types the record uses are
// mapped.
type value struct {
	StringValue  *string   `json:"stringValue,omitempty"`
	IntegerValue *string   `json:"integerValue,omitempty"`
	BooleanValue *bool     `json:"booleanValue,omitempty"`
	MapValue     *mapValue `json:"mapValue,omitempty"`
}

type mapValue struct {
	Fields map[string]value `json:"fields,omitempty"`
}

type document struct {
	Name       string           `json:"name,omitempty"`
	Fields     map[string]value `json:"fields,omitempty"`
	CreateTime string           `json:"createTime,omitempty"`
	UpdateTime string           `json:"updateTime,omitempty"`
}

func strVal(s string) value { return value{StringValue: &s} }

func boolVal(b bool) value { return value{BooleanValue: &b} }

func intVal(i int) value {
	v := strconv.Itoa(i)
	return value{IntegerValue: &v}
}

func mapVal(f map[string]value) value {
	return value{MapValue: &mapValue{Fields: f}}
}

// fields encodes the record as Firestore document fields.
func (r *NoteRecord) fields() map[string]value {
	fields := map[string]value{
		"note_id":    strVal(r.NoteID),
		"subject_id": strVal(r.SubjectID),
		"hadm_id":    strVal(r.HadmID),
		"note_type":  strVal(r.NoteType),
	}
	if r.CharTime != "" {
		fields["charttime"] = strVal(r.CharTime)
	}
	if r.StoreTime != "" {
		fields["storetime"] = strVal(r.StoreTime)
	}
	if r.Text != "" {
		fields["note_text"] = strVal(r.Text)
	}
	if r.Sections != nil {
		sections := make(map[string]value, len(r.Sections))
		for id, body := range r.Sections {
			sections[id] = strVal(body)
		}
		fields["sections"] = mapVal(sections)
	}
	if r.SectionSummary != nil {
		summary := make(map[string]value, len(r.SectionSummary))
		for id, stat := range r.SectionSummary {
			summary[id] = mapVal(map[string]value{
				"length":      intVal(stat.Length),
				"has_content": boolVal(stat.HasContent),
			})
		}
		fields["section_summary"] = mapVal(summary)
	}
	return fields
}

// recordFromDocument decodes a Firestore document into a record.
func recordFromDocument(doc *document) *NoteRecord {
	r := &NoteRecord{
		NoteID:    str(doc.Fields, "note_id"),
		SubjectID: str(doc.Fields, "subject_id"),
		HadmID:    str(doc.Fields, "hadm_id"),
		NoteType:  str(doc.Fields, "note_type"),
		CharTime:  str(doc.Fields, "charttime"),
		StoreTime: str(doc.Fields, "storetime"),
		Text:      str(doc.Fields, "note_text"),
	}

	if sections := mp(doc.Fields, "sections"); sections != nil {
		r.Sections = make(map[string]string, len(sections))
		for id := range sections {
			r.Sections[id] = str(sections, id)
		}
	}
	if summary := mp(doc.Fields, "section_summary"); summary != nil {
		r.SectionSummary = make(map[string]SectionStat, len(summary))
		for id := range summary {
			stat := mp(summary, id)
			r.SectionSummary[id] = SectionStat{
				Length:     integer(stat, "length"),
				HasContent: boolean(stat, "has_content"),
			}
		}
	}
	return r
}

func str(fields map[string]value, key string) string {
	if v, ok := fields[key]; ok && v.StringValue != nil {
		return *v.StringValue
	}
	return ""
}

func integer(fields map[string]value, key string) int {
	if v, ok := fields[key]; ok && v.IntegerValue != nil {
		n, _ := strconv.Atoi(*v.IntegerValue)
		return n
	}
	return 0
}

func boolean(fields map[string]value, key string) bool {
	if v, ok := fields[key]; ok && v.BooleanValue != nil {
		return *v.BooleanValue
	}
	return false
}

func mp(fields map[string]value, key string) map[string]value {
	if v, ok := fields[key]; ok && v.MapValue != nil {
		return v.MapValue.Fields
	}
	return nil
}
