package forms

// FormData is an immutable snapshot of the current form state. Predicates and
// validators receive the whole snapshot and must not mutate it.
type FormData map[string]any

// ValidationErrors maps field names to a single error message each.
type ValidationErrors map[string]string

// FieldType enumerates the supported form input widgets.
type FieldType string

// Field type constants.
const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypePassword FieldType = "password"
	FieldTypeSelect   FieldType = "select"
	FieldTypeSwitch   FieldType = "switch"
	FieldTypeTextarea FieldType = "textarea"
)

// Option represents a selectable value for select style fields.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// VisibleFunc decides whether a field or section is shown for the given form state.
type VisibleFunc func(form FormData) bool

// ValidateFunc validates a single field value against the whole form state.
// An empty return string means the value is valid.
type ValidateFunc func(value any, form FormData) string

// Field describes a single configuration input.
type Field struct {
	Name         string
	Label        string
	LabelFunc    func(form FormData) string
	Type         FieldType
	Placeholder  string
	Required     bool
	DefaultValue any
	Options      []Option
	OptionsFunc  func(form FormData) []Option
	Validate     ValidateFunc
	Description  string
	Min          float64
	Max          float64
	Step         float64
	Rows         int
	Visible      VisibleFunc
	Disabled     VisibleFunc
}

// Section is a named, ordered group of fields. Order matters for rendering
// only; validation semantics are order independent across sections.
type Section struct {
	Name        string
	Title       string
	Description string
	Fields      []Field
	Visible     VisibleFunc
}

// ResolvedLabel returns the field label, evaluating the dynamic variant when set.
func (f Field) ResolvedLabel(form FormData) string {
	if f.LabelFunc != nil {
		return f.LabelFunc(form)
	}
	return f.Label
}

// ResolvedOptions returns the option list, evaluating the dynamic variant when set.
func (f Field) ResolvedOptions(form FormData) []Option {
	if f.OptionsFunc != nil {
		return f.OptionsFunc(form)
	}
	return f.Options
}

// IsVisible reports whether the field participates in rendering and validation.
func (f Field) IsVisible(form FormData) bool {
	if f.Visible == nil {
		return true
	}
	return f.Visible(form)
}

// IsVisible reports whether the section participates in rendering and validation.
func (s Section) IsVisible(form FormData) bool {
	if s.Visible == nil {
		return true
	}
	return s.Visible(form)
}
