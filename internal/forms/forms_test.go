package forms

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testSections() []Section {
	return []Section{
		{
			Name:  "basic",
			Title: "Basic",
			Fields: []Field{
				{Name: "name", Label: "Name", Type: FieldTypeText, Required: true},
				{Name: "mode", Label: "Mode", Type: FieldTypeSelect, DefaultValue: "simple",
					Options: []Option{{Value: "simple", Label: "Simple"}, {Value: "advanced", Label: "Advanced"}}},
			},
		},
		{
			Name:  "advanced",
			Title: "Advanced",
			Fields: []Field{
				{
					Name:         "retries",
					Label:        "Retries",
					Type:         FieldTypeNumber,
					Required:     true,
					DefaultValue: 3,
					Visible: func(form FormData) bool {
						return AsString(form["mode"]) == "advanced"
					},
					Validate: func(value any, form FormData) string {
						n, ok := AsInt(value)
						if !ok || n < 0 || n > 10 {
							return "Retries must be between 0 and 10"
						}
						return ""
					},
				},
			},
		},
	}
}

func TestValidateSkipsHiddenFields(t *testing.T) {
	sections := testSections()

	errs := Validate(sections, FormData{"name": "demo", "mode": "simple", "retries": 99})
	require.Empty(t, errs, "hidden fields must never surface validation errors")

	errs = Validate(sections, FormData{"name": "demo", "mode": "advanced", "retries": 99})
	require.Equal(t, "Retries must be between 0 and 10", errs["retries"])
}

func TestValidateRequired(t *testing.T) {
	errs := Validate(testSections(), FormData{"mode": "simple"})
	require.Equal(t, "Name is required", errs["name"])
}

func TestValidateCustomOverwritesRequired(t *testing.T) {
	// A field that is both required and custom-validated ends up with the
	// custom message when the provided value is present but invalid.
	sections := []Section{{
		Name: "s",
		Fields: []Field{{
			Name:     "port",
			Label:    "Port",
			Type:     FieldTypeNumber,
			Required: true,
			Validate: func(value any, form FormData) string {
				n, _ := AsInt(value)
				if n < 1 || n > 65535 {
					return "Port must be between 1 and 65535"
				}
				return ""
			},
		}},
	}}

	errs := Validate(sections, FormData{"port": 0})
	require.Equal(t, "Port must be between 1 and 65535", errs["port"])
}

func TestValidateRequiredStandsWhenValueAbsent(t *testing.T) {
	sections := []Section{{
		Name: "s",
		Fields: []Field{{
			Name:     "token",
			Label:    "Token",
			Type:     FieldTypePassword,
			Required: true,
			Validate: func(value any, form FormData) string {
				return "never reached for absent values"
			},
		}},
	}}

	errs := Validate(sections, FormData{})
	require.Equal(t, "Token is required", errs["token"])
}

func TestValidateSectionVisibility(t *testing.T) {
	sections := []Section{{
		Name:    "hidden",
		Visible: func(form FormData) bool { return false },
		Fields:  []Field{{Name: "x", Label: "X", Required: true}},
	}}

	require.Empty(t, Validate(sections, FormData{}))
}

func TestDefaultsIgnoreVisibility(t *testing.T) {
	defaults := Defaults(testSections())
	require.Equal(t, "simple", defaults["mode"])
	// retries is hidden under the default mode but its default is still collected
	require.Equal(t, 3, defaults["retries"])
	_, ok := defaults["name"]
	require.False(t, ok, "fields without defaults stay absent")
}

func TestDynamicLabel(t *testing.T) {
	field := Field{
		Name:  "bucket",
		Label: "Bucket",
		LabelFunc: func(form FormData) string {
			if AsString(form["provider"]) == "github" {
				return "Repository"
			}
			return "Bucket"
		},
	}

	require.Equal(t, "Repository", field.ResolvedLabel(FormData{"provider": "github"}))
	require.Equal(t, "Bucket", field.ResolvedLabel(FormData{"provider": "s3"}))
}

func TestCoercions(t *testing.T) {
	n, ok := AsInt("8086")
	require.True(t, ok)
	require.Equal(t, 8086, n)

	n, ok = AsInt(float64(15))
	require.True(t, ok)
	require.Equal(t, 15, n)

	_, ok = AsInt("")
	require.False(t, ok)

	require.True(t, AsBool("true"))
	require.False(t, AsBool("0"))
	require.Equal(t, "hello", AsString("  hello "))
}
