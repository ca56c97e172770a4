package connectors

import (
	"github.com/tempoview/tempoview/internal/bridge"
	"github.com/tempoview/tempoview/internal/forms"
)

// IoTDB version discriminant values.
const (
	IoTDBVersion013 = "0.13.x"
	IoTDBVersion1   = "1.x"
)

const iotdbDriverFamily = "iotdb"

var _ Connector = (*IoTDBConnector)(nil)

// IoTDBConnector models connections to Apache IoTDB servers.
type IoTDBConnector struct {
	Base
}

// NewIoTDBConnector constructs the connector. A nil invoker uses the
// process-wide bridge.
func NewIoTDBConnector(invoker bridge.Invoker) *IoTDBConnector {
	c := &IoTDBConnector{}
	c.Base = NewBase(Meta{
		Type:        TypeIoTDB,
		DisplayName: "Apache IoTDB",
		Icon:        "iotdb",
		DefaultPort: 6667,
	}, invoker, c.FormSections, c.ToConnectionConfig)
	return c
}

// FormSections composes the common sections with IoTDB session settings.
func (c *IoTDBConnector) FormSections() []forms.Section {
	return []forms.Section{
		basicInfoSection(),
		connectionSection(c.DefaultPort()),
		{
			Name:  "iotdb",
			Title: "IoTDB Settings",
			Fields: []forms.Field{
				{
					Name:         "version",
					Label:        "Version",
					Type:         forms.FieldTypeSelect,
					Required:     true,
					DefaultValue: IoTDBVersion1,
					Options: []forms.Option{
						{Value: IoTDBVersion013, Label: "IoTDB 0.13.x"},
						{Value: IoTDBVersion1, Label: "IoTDB 1.x / 2.x"},
					},
				},
				{
					Name:         "username",
					Label:        "Username",
					Type:         forms.FieldTypeText,
					Required:     true,
					DefaultValue: "root",
				},
				{
					Name:         "password",
					Label:        "Password",
					Type:         forms.FieldTypePassword,
					Required:     true,
					DefaultValue: "root",
				},
				{
					Name:         "fetchSize",
					Label:        "Fetch Size",
					Type:         forms.FieldTypeNumber,
					DefaultValue: 10000,
					Min:          1,
					Max:          100000,
					Description:  "Rows fetched per round trip",
					Validate: func(value any, form forms.FormData) string {
						n, ok := forms.AsInt(value)
						if !ok || n < 1 || n > 100000 {
							return "Fetch size must be between 1 and 100000"
						}
						return ""
					},
				},
				{
					Name:         "timezone",
					Label:        "Time Zone",
					Type:         forms.FieldTypeText,
					Placeholder:  "Asia/Shanghai",
					DefaultValue: "UTC",
				},
			},
		},
		advancedSection(),
	}
}

// ToConnectionConfig maps form state into the normalized persistence shape.
// Session tuning lands in the iotdb driver bag.
func (c *IoTDBConnector) ToConnectionConfig(form forms.FormData) (*ConnectionConfig, error) {
	cfg := commonConfigFromForm(TypeIoTDB, form)
	cfg.Version = forms.AsString(form["version"])
	if cfg.Version == "" {
		cfg.Version = IoTDBVersion1
	}

	bag := cfg.Driver(iotdbDriverFamily)
	if fetchSize, ok := forms.AsInt(form["fetchSize"]); ok && fetchSize > 0 {
		bag["fetchSize"] = fetchSize
	}
	if tz := forms.AsString(form["timezone"]); tz != "" {
		bag["timezone"] = tz
	}

	return cfg, nil
}

// FromConnectionConfig rehydrates form state from a persisted config.
func (c *IoTDBConnector) FromConnectionConfig(cfg *ConnectionConfig) forms.FormData {
	form := commonFormFromConfig(cfg)
	if cfg == nil {
		return form
	}

	version := cfg.Version
	if version == "" {
		version = IoTDBVersion1
	}
	form["version"] = version

	if fetchSize, ok := cfg.DriverValue(iotdbDriverFamily, "fetchSize"); ok {
		if n, ok := forms.AsInt(fetchSize); ok {
			form["fetchSize"] = n
		}
	}
	if tz, ok := cfg.DriverValue(iotdbDriverFamily, "timezone"); ok {
		setNonEmpty(form, "timezone", forms.AsString(tz))
	}

	return form
}
