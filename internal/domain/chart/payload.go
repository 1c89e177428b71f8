package chart

import (
	"encoding/json"
	"fmt"
	"time"
)

// Payload is the type-specific editable sub-record carried by a chart item.
// Exactly one concrete payload exists per ItemType; an item's tag and its
// payload's tag always agree (see ChartItem.Validate).
type Payload interface {
	ItemType() ItemType
	// Clone returns a deep copy. The optimistic cache relies on clones being
	// fully independent of the original.
	Clone() Payload
}

// PayloadContext carries the request-scoped inputs default payloads depend on.
type PayloadContext struct {
	// Country is the ISO 3166-1 alpha-2 code of the owning organization,
	// used to pick measurement units for VITALS defaults.
	Country string
}

// defaultOptions is the initial option list for DROPDOWN, RANGE and
// CHECKBOXES items.
func defaultOptions() []string {
	return []string{"1", "2", "3", "4", "5"}
}

// ChiefComplaintPayload holds the presenting complaint free text.
type ChiefComplaintPayload struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func (p *ChiefComplaintPayload) ItemType() ItemType { return ItemChiefComplaint }
func (p *ChiefComplaintPayload) Clone() Payload     { c := *p; return &c }

// NotePayload holds a plain free-text note.
type NotePayload struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func (p *NotePayload) ItemType() ItemType { return ItemNote }
func (p *NotePayload) Clone() Payload     { c := *p; return &c }

// NoteEditorPayload holds rich text produced by the editor widget. The
// formatting semantics of Value are opaque to this core.
type NoteEditorPayload struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func (p *NoteEditorPayload) ItemType() ItemType { return ItemNoteEditor }
func (p *NoteEditorPayload) Clone() Payload     { c := *p; return &c }

// SketchPayload references a drawing stored in blob storage by opaque key.
type SketchPayload struct {
	Label         string `json:"label"`
	CanvasKey     string `json:"canvas_key"`
	BackgroundKey string `json:"background_key,omitempty"`
}

func (p *SketchPayload) ItemType() ItemType { return ItemSketch }
func (p *SketchPayload) Clone() Payload     { c := *p; return &c }

// HeadingPayload is a section divider.
type HeadingPayload struct {
	Label string `json:"label"`
}

func (p *HeadingPayload) ItemType() ItemType { return ItemHeading }
func (p *HeadingPayload) Clone() Payload     { c := *p; return &c }

// SpineMark is one annotated vertebral segment on a spine diagram.
type SpineMark struct {
	Segment string `json:"segment"`
	Note    string `json:"note"`
}

// SpinePayload holds per-segment annotations on a spine diagram.
type SpinePayload struct {
	Label string      `json:"label"`
	Marks []SpineMark `json:"marks"`
}

func (p *SpinePayload) ItemType() ItemType { return ItemSpine }

func (p *SpinePayload) Clone() Payload {
	c := *p
	c.Marks = append([]SpineMark(nil), p.Marks...)
	return &c
}

// BodyAnnotation is one positioned note on a body chart image.
type BodyAnnotation struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Note string  `json:"note"`
}

// BodyChartPayload holds annotations over a body diagram. The diagram itself
// lives in blob storage, referenced by opaque key.
type BodyChartPayload struct {
	Label       string           `json:"label"`
	ImageKey    string           `json:"image_key,omitempty"`
	Annotations []BodyAnnotation `json:"annotations"`
}

func (p *BodyChartPayload) ItemType() ItemType { return ItemBodyChart }

func (p *BodyChartPayload) Clone() Payload {
	c := *p
	c.Annotations = append([]BodyAnnotation(nil), p.Annotations...)
	return &c
}

// FilePayload references an uploaded attachment by opaque blob key.
type FilePayload struct {
	Label       string `json:"label"`
	FileKey     string `json:"file_key"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

func (p *FilePayload) ItemType() ItemType { return ItemFile }
func (p *FilePayload) Clone() Payload     { c := *p; return &c }

// DropdownPayload holds a single-select option list.
type DropdownPayload struct {
	Label    string   `json:"label"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	Selected string   `json:"selected"`
}

func (p *DropdownPayload) ItemType() ItemType { return ItemDropdown }

func (p *DropdownPayload) Clone() Payload {
	c := *p
	c.Options = append([]string(nil), p.Options...)
	return &c
}

// RangePayload holds an ordered scale the practitioner picks one value from.
type RangePayload struct {
	Label    string   `json:"label"`
	Options  []string `json:"options"`
	Selected string   `json:"selected"`
}

func (p *RangePayload) ItemType() ItemType { return ItemRange }

func (p *RangePayload) Clone() Payload {
	c := *p
	c.Options = append([]string(nil), p.Options...)
	return &c
}

// CheckboxOption is one row of a checkbox list: the option key, free-text
// notes against it, and whether it is ticked.
type CheckboxOption struct {
	Key     string `json:"key"`
	Notes   string `json:"notes"`
	Checked bool   `json:"checked"`
}

// Checkbox layout modes.
const (
	CheckboxLayoutList    = "list"
	CheckboxLayoutColumns = "columns"
)

// CheckboxesPayload holds a multi-select checkbox list with per-option notes.
type CheckboxesPayload struct {
	Label        string           `json:"label"`
	Options      []CheckboxOption `json:"options"`
	Layout       string           `json:"layout"`
	IncludeNotes bool             `json:"include_notes"`
	Required     bool             `json:"required"`
}

func (p *CheckboxesPayload) ItemType() ItemType { return ItemCheckboxes }

func (p *CheckboxesPayload) Clone() Payload {
	c := *p
	c.Options = append([]CheckboxOption(nil), p.Options...)
	return &c
}

// OptionKeys returns the option keys in order, for validation.
func (p *CheckboxesPayload) OptionKeys() []string {
	keys := make([]string, len(p.Options))
	for i, o := range p.Options {
		keys[i] = o.Key
	}
	return keys
}

// VitalsPayload holds one set of vital sign measurements with their units.
type VitalsPayload struct {
	Height           float64 `json:"height"`
	HeightUnit       string  `json:"height_unit"`
	Weight           float64 `json:"weight"`
	WeightUnit       string  `json:"weight_unit"`
	Temperature      float64 `json:"temperature"`
	TemperatureUnit  string  `json:"temperature_unit"`
	SystolicBP       int     `json:"systolic_bp"`
	DiastolicBP      int     `json:"diastolic_bp"`
	HeartRate        int     `json:"heart_rate"`
	RespiratoryRate  int     `json:"respiratory_rate"`
	OxygenSaturation float64 `json:"oxygen_saturation"`
}

func (p *VitalsPayload) ItemType() ItemType { return ItemVitals }
func (p *VitalsPayload) Clone() Payload     { c := *p; return &c }

// Allergy clinical statuses.
const (
	AllergyStatusActive   = "active"
	AllergyStatusInactive = "inactive"
	AllergyStatusResolved = "resolved"
)

// AllergyPayload holds one recorded allergy.
type AllergyPayload struct {
	Substance string     `json:"substance"`
	Reaction  string     `json:"reaction"`
	Severity  string     `json:"severity"`
	Status    string     `json:"status"`
	OnsetDate *time.Time `json:"onset_date,omitempty"`
}

func (p *AllergyPayload) ItemType() ItemType { return ItemAllergy }

func (p *AllergyPayload) Clone() Payload {
	c := *p
	if p.OnsetDate != nil {
		t := *p.OnsetDate
		c.OnsetDate = &t
	}
	return &c
}

// Problem clinical statuses.
const (
	ProblemStatusActive     = "active"
	ProblemStatusControlled = "controlled"
	ProblemStatusResolved   = "resolved"
)

// ProblemPayload holds one problem-list entry.
type ProblemPayload struct {
	Title       string     `json:"title"`
	Code        string     `json:"code,omitempty"`
	Status      string     `json:"status"`
	DiagnosedAt *time.Time `json:"diagnosed_at,omitempty"`
}

func (p *ProblemPayload) ItemType() ItemType { return ItemProblem }

func (p *ProblemPayload) Clone() Payload {
	c := *p
	if p.DiagnosedAt != nil {
		t := *p.DiagnosedAt
		c.DiagnosedAt = &t
	}
	return &c
}

// vitalsUnits picks default measurement units from the organization country.
func vitalsUnits(country string) (height, weight, temperature string) {
	if country == "US" {
		return "ft", "lb", "°F"
	}
	return "cm", "kg", "°C"
}

// DefaultPayload builds the fully-populated default payload for a freshly
// created item of the given type. Unsupported tags are rejected; callers are
// expected to check Supported() first, so hitting the error here means the
// allow-list check was skipped.
func DefaultPayload(typ ItemType, pctx PayloadContext) (Payload, error) {
	label := typ.DefaultLabel()
	switch typ {
	case ItemChiefComplaint:
		return &ChiefComplaintPayload{Label: label}, nil
	case ItemNote:
		return &NotePayload{Label: label}, nil
	case ItemNoteEditor:
		return &NoteEditorPayload{Label: label}, nil
	case ItemSketch:
		return &SketchPayload{Label: label}, nil
	case ItemHeading:
		return &HeadingPayload{Label: label}, nil
	case ItemSpine:
		return &SpinePayload{Label: label, Marks: []SpineMark{}}, nil
	case ItemBodyChart:
		return &BodyChartPayload{Label: label, Annotations: []BodyAnnotation{}}, nil
	case ItemFile:
		return &FilePayload{Label: label}, nil
	case ItemDropdown:
		return &DropdownPayload{Label: label, Options: defaultOptions()}, nil
	case ItemRange:
		return &RangePayload{Label: label, Options: defaultOptions()}, nil
	case ItemCheckboxes:
		opts := make([]CheckboxOption, 0, 5)
		for _, k := range defaultOptions() {
			opts = append(opts, CheckboxOption{Key: k})
		}
		return &CheckboxesPayload{Label: label, Options: opts, Layout: CheckboxLayoutList}, nil
	case ItemVitals:
		h, w, t := vitalsUnits(pctx.Country)
		return &VitalsPayload{HeightUnit: h, WeightUnit: w, TemperatureUnit: t}, nil
	case ItemAllergy:
		return &AllergyPayload{Status: AllergyStatusActive}, nil
	case ItemProblem:
		return &ProblemPayload{Status: ProblemStatusActive}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedItemType, typ)
	}
}

// DecodePayload unmarshals raw JSON into the concrete payload struct for the
// given type tag. It is the single place payload decode dispatch happens.
func DecodePayload(typ ItemType, raw json.RawMessage) (Payload, error) {
	var p Payload
	switch typ {
	case ItemChiefComplaint:
		p = &ChiefComplaintPayload{}
	case ItemNote:
		p = &NotePayload{}
	case ItemNoteEditor:
		p = &NoteEditorPayload{}
	case ItemSketch:
		p = &SketchPayload{}
	case ItemHeading:
		p = &HeadingPayload{}
	case ItemSpine:
		p = &SpinePayload{}
	case ItemBodyChart:
		p = &BodyChartPayload{}
	case ItemFile:
		p = &FilePayload{}
	case ItemDropdown:
		p = &DropdownPayload{}
	case ItemRange:
		p = &RangePayload{}
	case ItemCheckboxes:
		p = &CheckboxesPayload{}
	case ItemVitals:
		p = &VitalsPayload{}
	case ItemAllergy:
		p = &AllergyPayload{}
	case ItemProblem:
		p = &ProblemPayload{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedItemType, typ)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", typ, err)
		}
	}
	return p, nil
}
