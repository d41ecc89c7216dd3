package models

// ItemType is the answer type a template item expects.
type ItemType string

const (
	ItemGroup     ItemType = "group"
	ItemDisplay   ItemType = "display"
	ItemString    ItemType = "string"
	ItemText      ItemType = "text"
	ItemInteger   ItemType = "integer"
	ItemDecimal   ItemType = "decimal"
	ItemBoolean   ItemType = "boolean"
	ItemDate      ItemType = "date"
	ItemDateTime  ItemType = "dateTime"
	ItemChoice    ItemType = "choice"
	ItemReference ItemType = "reference"
)

// TemplateItem is one question, or a group of questions.
type TemplateItem struct {
	LinkID   string         `json:"linkId"`
	Text     string         `json:"text,omitempty"`
	Type     ItemType       `json:"type"`
	Required bool           `json:"required,omitempty"`
	Repeats  bool           `json:"repeats,omitempty"`
	ReadOnly bool           `json:"readOnly,omitempty"`
	Options  []Coding       `json:"options,omitempty"`
	Items    []TemplateItem `json:"items,omitempty"`
}

// ExtractionMode selects how records are derived from answers.
type ExtractionMode string

const (
	ExtractionTransform    ExtractionMode = "transform"
	ExtractionByDefinition ExtractionMode = "definition"
	ExtractionNone         ExtractionMode = "none"
)

// FieldMapping copies the first answer of LinkID into Path of the record JSON.
type FieldMapping struct {
	LinkID string `json:"linkId"`
	Path   string `json:"path"`
}

// ExtractionDefinition describes one record derived directly from answers.
// LinkSubject points the record at the response subject.
type ExtractionDefinition struct {
	ResourceType ResourceType   `json:"resourceType"`
	Fields       []FieldMapping `json:"fields"`
	LinkSubject  bool           `json:"linkSubject,omitempty"`
}

type Extraction struct {
	Mode         ExtractionMode         `json:"mode,omitempty"`
	TransformRef string                 `json:"transformRef,omitempty"`
	Definitions  []ExtractionDefinition `json:"definitions,omitempty"`
}

// Enabled reports whether the template declares any usable extraction.
func (e Extraction) Enabled() bool {
	switch e.Mode {
	case ExtractionTransform:
		return e.TransformRef != ""
	case ExtractionByDefinition:
		return len(e.Definitions) > 0
	default:
		return false
	}
}

// FormTemplate is the read-only definition of a form.
type FormTemplate struct {
	ID           string         `json:"id"`
	Name         string         `json:"name,omitempty"`
	Version      string         `json:"version,omitempty"`
	SubjectTypes []ResourceType `json:"subjectTypes,omitempty"`
	Items        []TemplateItem `json:"items,omitempty"`
	Extraction   Extraction     `json:"extraction"`
	Libraries    []string       `json:"libraries,omitempty"`
	UseContext   []Coding       `json:"useContext,omitempty"`
	Experimental bool           `json:"experimental,omitempty"`
}

func (t FormTemplate) Reference() Reference {
	return NewReference(TypeFormTemplate, t.ID)
}

// SubjectType returns the first declared subject type.
func (t FormTemplate) SubjectType() ResourceType {
	if len(t.SubjectTypes) == 0 {
		return ""
	}
	return t.SubjectTypes[0]
}

// FindItem searches the item tree for linkID.
func (t FormTemplate) FindItem(linkID string) (TemplateItem, bool) {
	return findTemplateItem(t.Items, linkID)
}

func findTemplateItem(items []TemplateItem, linkID string) (TemplateItem, bool) {
	for _, it := range items {
		if it.LinkID == linkID {
			return it, true
		}
		if found, ok := findTemplateItem(it.Items, linkID); ok {
			return found, true
		}
	}
	return TemplateItem{}, false
}
