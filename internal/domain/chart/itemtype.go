package chart

// ItemType tags a chart item with the kind of payload it carries. The tags
// are wire-visible and stable; clients render and mutate items based on them.
type ItemType string

const (
	ItemChiefComplaint ItemType = "CHIEF_COMPLAINT"
	ItemNote           ItemType = "NOTE"
	ItemNoteEditor     ItemType = "NOTE_EDITOR"
	ItemSketch         ItemType = "SKETCH"
	ItemHeading        ItemType = "HEADING"
	ItemSpine          ItemType = "SPINE"
	ItemBodyChart      ItemType = "BODY_CHART"
	ItemFile           ItemType = "FILE"
	ItemDropdown       ItemType = "DROPDOWN"
	ItemRange          ItemType = "RANGE"
	ItemCheckboxes     ItemType = "CHECKBOXES"
	ItemVitals         ItemType = "VITALS"
	ItemAllergy        ItemType = "ALLERGY"
	ItemProblem        ItemType = "PROBLEM"
)

// supportedItemTypes is the closed set of item kinds. Anything outside it is
// rejected with ErrUnsupportedItemType before any persistence happens.
var supportedItemTypes = map[ItemType]bool{
	ItemChiefComplaint: true,
	ItemNote:           true,
	ItemNoteEditor:     true,
	ItemSketch:         true,
	ItemHeading:        true,
	ItemSpine:          true,
	ItemBodyChart:      true,
	ItemFile:           true,
	ItemDropdown:       true,
	ItemRange:          true,
	ItemCheckboxes:     true,
	ItemVitals:         true,
	ItemAllergy:        true,
	ItemProblem:        true,
}

// ItemTypes returns the supported tags in a fixed, display-friendly order.
func ItemTypes() []ItemType {
	return []ItemType{
		ItemChiefComplaint, ItemNote, ItemNoteEditor, ItemSketch,
		ItemHeading, ItemSpine, ItemBodyChart, ItemFile,
		ItemDropdown, ItemRange, ItemCheckboxes, ItemVitals,
		ItemAllergy, ItemProblem,
	}
}

// Supported reports whether t is one of the fourteen item kinds.
func (t ItemType) Supported() bool {
	return supportedItemTypes[t]
}

// defaultLabels maps each item kind to the label a freshly created item gets.
var defaultLabels = map[ItemType]string{
	ItemChiefComplaint: "Chief complaint",
	ItemNote:           "Note",
	ItemNoteEditor:     "Note",
	ItemSketch:         "Sketch",
	ItemHeading:        "Heading",
	ItemSpine:          "Spine",
	ItemBodyChart:      "Body chart",
	ItemFile:           "File",
	ItemDropdown:       "Dropdown",
	ItemRange:          "Range",
	ItemCheckboxes:     "Checkboxes",
	ItemVitals:         "Vitals",
	ItemAllergy:        "Allergy",
	ItemProblem:        "Problem",
}

// DefaultLabel returns the human-readable label for a newly created item.
func (t ItemType) DefaultLabel() string {
	return defaultLabels[t]
}
