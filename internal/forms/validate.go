package forms

import "fmt"

// Validate walks every visible field of every visible section and produces at
// most one error message per field.
//
// For each visible field the required check runs first; when the field also
// defines a custom validator and the value is present, the validator runs
// afterwards and its message overwrites the required message for the same key.
// This overwrite-last-wins ordering is relied upon by callers and tests.
func Validate(sections []Section, form FormData) ValidationErrors {
	errs := ValidationErrors{}

	for _, section := range sections {
		if !section.IsVisible(form) {
			continue
		}
		for _, field := range section.Fields {
			if !field.IsVisible(form) {
				continue
			}

			value, present := form[field.Name]

			if field.Required && isEmpty(value) {
				errs[field.Name] = fmt.Sprintf("%s is required", field.ResolvedLabel(form))
			}

			if field.Validate != nil && present && value != nil {
				if msg := field.Validate(value, form); msg != "" {
					errs[field.Name] = msg
				}
			}
		}
	}

	return errs
}

// Defaults collects every field default into a flat form snapshot. Visibility
// predicates are intentionally ignored so hidden provider-specific fields keep
// their defaults when the discriminant changes later.
func Defaults(sections []Section) FormData {
	data := FormData{}
	for _, section := range sections {
		for _, field := range section.Fields {
			if field.DefaultValue != nil {
				data[field.Name] = field.DefaultValue
			}
		}
	}
	return data
}

// isEmpty mirrors the loose emptiness rules the form model was specified
// against: nil, empty string, numeric zero, and false all count as empty.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case int:
		return v == 0
	case int32:
		return v == 0
	case int64:
		return v == 0
	case float32:
		return v == 0
	case float64:
		return v == 0
	default:
		return false
	}
}
