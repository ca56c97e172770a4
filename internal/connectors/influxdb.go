package connectors

import (
	"github.com/tempoview/tempoview/internal/bridge"
	"github.com/tempoview/tempoview/internal/forms"
)

// InfluxDB version discriminant values.
const (
	InfluxVersion1 = "1.x"
	InfluxVersion2 = "2.x"
	InfluxVersion3 = "3.x"
)

// Compile-time check.
var _ Connector = (*InfluxDBConnector)(nil)

// InfluxDBConnector models connections to InfluxDB 1.x, 2.x and 3.x servers.
// The version field gates which authentication fields are visible and required;
// each version declares its own field subset so requiredness switches with the
// discriminant.
type InfluxDBConnector struct {
	Base
}

// NewInfluxDBConnector constructs the connector. A nil invoker uses the
// process-wide bridge.
func NewInfluxDBConnector(invoker bridge.Invoker) *InfluxDBConnector {
	c := &InfluxDBConnector{}
	c.Base = NewBase(Meta{
		Type:        TypeInfluxDB,
		DisplayName: "InfluxDB",
		Icon:        "influxdb",
		DefaultPort: 8086,
	}, invoker, c.FormSections, c.ToConnectionConfig)
	return c
}

// FormSections composes the common sections with the version-gated
// authentication fields.
func (c *InfluxDBConnector) FormSections() []forms.Section {
	return []forms.Section{
		basicInfoSection(),
		connectionSection(c.DefaultPort()),
		{
			Name:  "influxdb",
			Title: "InfluxDB Settings",
			Fields: []forms.Field{
				{
					Name:         "version",
					Label:        "Version",
					Type:         forms.FieldTypeSelect,
					Required:     true,
					DefaultValue: InfluxVersion1,
					Options: []forms.Option{
						{Value: InfluxVersion1, Label: "InfluxDB 1.x"},
						{Value: InfluxVersion2, Label: "InfluxDB 2.x"},
						{Value: InfluxVersion3, Label: "InfluxDB 3.x"},
					},
				},

				// 1.x: classic username/password with optional database scoping.
				{
					Name:    "username",
					Label:   "Username",
					Type:    forms.FieldTypeText,
					Visible: influxVersionIs(InfluxVersion1),
				},
				{
					Name:    "password",
					Label:   "Password",
					Type:    forms.FieldTypePassword,
					Visible: influxVersionIs(InfluxVersion1),
				},
				{
					Name:        "database",
					Label:       "Default Database",
					Type:        forms.FieldTypeText,
					Placeholder: "telegraf",
					Visible:     influxVersionIs(InfluxVersion1),
				},
				{
					Name:        "retentionPolicy",
					Label:       "Retention Policy",
					Type:        forms.FieldTypeText,
					Placeholder: "autogen",
					Visible:     influxVersionIs(InfluxVersion1),
				},

				// 2.x: organization/bucket/token triple, all mandatory.
				{
					Name:     "organization",
					Label:    "Organization",
					Type:     forms.FieldTypeText,
					Visible:  influxVersionIs(InfluxVersion2),
					Required: true,
					Validate: influxRequiredFor(InfluxVersion2, "Organization"),
				},
				{
					Name:     "bucket",
					Label:    "Bucket",
					Type:     forms.FieldTypeText,
					Visible:  influxVersionIs(InfluxVersion2),
					Required: true,
					Validate: influxRequiredFor(InfluxVersion2, "Bucket"),
				},
				{
					Name:     "apiToken",
					Label:    "API Token",
					Type:     forms.FieldTypePassword,
					Visible:  influxVersionIs(InfluxVersion2),
					Required: true,
					Validate: influxRequiredFor(InfluxVersion2, "API Token"),
				},

				// 3.x: SQL-era database plus an optional token.
				{
					Name:     "database",
					Label:    "Database",
					Type:     forms.FieldTypeText,
					Visible:  influxVersionIs(InfluxVersion3),
					Required: true,
					Validate: influxRequiredFor(InfluxVersion3, "Database"),
				},
				{
					Name:    "apiToken",
					Label:   "API Token",
					Type:    forms.FieldTypePassword,
					Visible: influxVersionIs(InfluxVersion3),
				},
			},
		},
		advancedSection(),
	}
}

// ToConnectionConfig maps form state into the normalized persistence shape.
func (c *InfluxDBConnector) ToConnectionConfig(form forms.FormData) (*ConnectionConfig, error) {
	cfg := commonConfigFromForm(TypeInfluxDB, form)
	cfg.Version = forms.AsString(form["version"])
	if cfg.Version == "" {
		cfg.Version = InfluxVersion1
	}

	switch cfg.Version {
	case InfluxVersion1:
		cfg.RetentionPolicy = forms.AsString(form["retentionPolicy"])
	case InfluxVersion2:
		cfg.V2Config = &InfluxV2Config{
			Organization: forms.AsString(form["organization"]),
			Bucket:       forms.AsString(form["bucket"]),
			APIToken:     forms.AsString(form["apiToken"]),
		}
	case InfluxVersion3:
		if token := forms.AsString(form["apiToken"]); token != "" {
			cfg.V2Config = &InfluxV2Config{APIToken: token}
		}
	}

	return cfg, nil
}

// FromConnectionConfig rehydrates form state from a persisted config.
// Unknown versions fall back to 1.x so older records keep loading.
func (c *InfluxDBConnector) FromConnectionConfig(cfg *ConnectionConfig) forms.FormData {
	form := commonFormFromConfig(cfg)
	if cfg == nil {
		return form
	}

	version := cfg.Version
	if version == "" {
		version = InfluxVersion1
	}
	form["version"] = version

	setNonEmpty(form, "retentionPolicy", cfg.RetentionPolicy)
	if cfg.V2Config != nil {
		setNonEmpty(form, "organization", cfg.V2Config.Organization)
		setNonEmpty(form, "bucket", cfg.V2Config.Bucket)
		setNonEmpty(form, "apiToken", cfg.V2Config.APIToken)
	}

	return form
}

func influxVersionIs(version string) forms.VisibleFunc {
	return func(form forms.FormData) bool {
		return forms.AsString(form["version"]) == version
	}
}

// influxRequiredFor enforces "required" only while the discriminant matches,
// so switching versions instantly changes which fields are mandatory.
func influxRequiredFor(version, label string) forms.ValidateFunc {
	return func(value any, form forms.FormData) string {
		if forms.AsString(form["version"]) != version {
			return ""
		}
		if forms.AsString(value) == "" {
			return label + " is required"
		}
		return ""
	}
}
