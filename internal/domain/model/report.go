package model

// FieldStatus is the outcome of one binding rule.
type FieldStatus string

const (
	// FieldFilled means at least one token was replaced with a non-empty value.
	FieldFilled FieldStatus = "filled"
	// FieldBlank means the rule matched the template but its value was empty.
	FieldBlank FieldStatus = "blank"
	// FieldTemplateMiss means the region or phrase was absent from the deck.
	FieldTemplateMiss FieldStatus = "template_miss"
)

// NoteKind classifies extraction notes.
type NoteKind string

const (
	NoteAnchorMissing NoteKind = "anchor_missing"
	NoteAliasMissing  NoteKind = "alias_missing"
	NoteImageMissing  NoteKind = "image_missing"
)

// Note records a recovered extraction or binding problem.
type Note struct {
	Kind   NoteKind `json:"kind"`
	Detail string   `json:"detail"`
}

// FieldResult is the report line of a single rule.
type FieldResult struct {
	Rule   string      `json:"rule"`
	Page   int         `json:"page"`
	Region string      `json:"region"`
	Metric string      `json:"metric,omitempty"`
	Value  string      `json:"value,omitempty"`
	Status FieldStatus `json:"status"`
	Runs   int         `json:"runs"`
}

// Summary counts field outcomes.
type Summary struct {
	Filled int `json:"filled"`
	Blank  int `json:"blank"`
	Missed int `json:"missed"`
}

// Report is the structured account of which fields a generation filled.
type Report struct {
	Fields  []FieldResult     `json:"fields"`
	Notes   []Note            `json:"notes,omitempty"`
	Metrics map[string]string `json:"metrics,omitempty"`
}

// AddNote appends a note.
func (r *Report) AddNote(kind NoteKind, detail string) {
	r.Notes = append(r.Notes, Note{Kind: kind, Detail: detail})
}

// Summary tallies the field results.
func (r *Report) Summary() Summary {
	var s Summary
	for _, f := range r.Fields {
		switch f.Status {
		case FieldFilled:
			s.Filled++
		case FieldBlank:
			s.Blank++
		case FieldTemplateMiss:
			s.Missed++
		}
	}
	return s
}
