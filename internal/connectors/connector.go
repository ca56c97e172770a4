package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tempoview/tempoview/internal/bridge"
	"github.com/tempoview/tempoview/internal/forms"
	"github.com/tempoview/tempoview/pkg/metrics"
)

// Connector bridges UI form state and the persisted ConnectionConfig for one
// backend family. FormSections, ToConnectionConfig, FromConnectionConfig and
// DefaultPort are backend specific; Validate, DefaultConfig and TestConnection
// have shared implementations provided by Base.
type Connector interface {
	Type() string
	DisplayName() string
	Icon() string
	DefaultPort() int

	FormSections() []forms.Section
	Validate(form forms.FormData) forms.ValidationErrors
	DefaultConfig() forms.FormData
	ToConnectionConfig(form forms.FormData) (*ConnectionConfig, error)
	FromConnectionConfig(cfg *ConnectionConfig) forms.FormData
	TestConnection(ctx context.Context, form forms.FormData) *TestResult
}

// Meta carries the static identity of a connector.
type Meta struct {
	Type        string
	DisplayName string
	Icon        string
	DefaultPort int
}

// Base supplies the generic connector algorithms on top of the concrete
// connector's section list and config conversion, injected at construction.
// Embed it in every connector implementation.
type Base struct {
	meta     Meta
	invoker  bridge.Invoker
	sections func() []forms.Section
	convert  func(form forms.FormData) (*ConnectionConfig, error)
}

// NewBase wires the shared connector behaviour. A nil invoker falls back to
// the process-wide bridge at call time, which keeps test injection simple.
func NewBase(meta Meta, invoker bridge.Invoker, sections func() []forms.Section, convert func(forms.FormData) (*ConnectionConfig, error)) Base {
	return Base{meta: meta, invoker: invoker, sections: sections, convert: convert}
}

func (b *Base) Type() string        { return b.meta.Type }
func (b *Base) DisplayName() string { return b.meta.DisplayName }
func (b *Base) Icon() string        { return b.meta.Icon }
func (b *Base) DefaultPort() int    { return b.meta.DefaultPort }

// Validate runs the declarative form validation over the connector's sections.
func (b *Base) Validate(form forms.FormData) forms.ValidationErrors {
	return forms.Validate(b.sections(), form)
}

// DefaultConfig collects every field default, ignoring visibility, then force
// sets the connector's default port.
func (b *Base) DefaultConfig() forms.FormData {
	defaults := forms.Defaults(b.sections())
	defaults["port"] = b.meta.DefaultPort
	return defaults
}

// TestConnection converts the form to a ConnectionConfig, invokes the bridge
// connection test, and attaches the measured round-trip latency. It never
// returns an error: bridge rejections become failure-shaped results.
func (b *Base) TestConnection(ctx context.Context, form forms.FormData) *TestResult {
	cfg, err := b.convert(form)
	if err != nil {
		metrics.ConnectionTests.WithLabelValues(b.meta.Type, "failure").Inc()
		return &TestResult{Success: false, Error: err.Error()}
	}

	start := time.Now()
	raw, err := b.bridge().Invoke(ctx, bridge.CommandTestNewConnection, bridge.TestConnectionArgs{Config: cfg})
	if err != nil {
		metrics.ConnectionTests.WithLabelValues(b.meta.Type, "failure").Inc()
		msg := err.Error()
		if msg == "" {
			msg = "connection test failed"
		}
		return &TestResult{Success: false, Error: msg, Latency: 0}
	}
	latency := time.Since(start).Milliseconds()

	result := &TestResult{}
	if err := json.Unmarshal(raw, result); err != nil {
		metrics.ConnectionTests.WithLabelValues(b.meta.Type, "failure").Inc()
		return &TestResult{Success: false, Error: fmt.Sprintf("malformed test result: %v", err), Latency: 0}
	}

	result.Latency = latency
	outcome := "failure"
	if result.Success {
		outcome = "success"
	}
	metrics.ConnectionTests.WithLabelValues(b.meta.Type, outcome).Inc()
	return result
}

func (b *Base) bridge() bridge.Invoker {
	if b.invoker != nil {
		return b.invoker
	}
	return bridge.Default()
}

// basicInfoSection returns the common identity fields shared by host-based
// connectors.
func basicInfoSection() forms.Section {
	return forms.Section{
		Name:  "basic",
		Title: "Basic Information",
		Fields: []forms.Field{
			{
				Name:        "name",
				Label:       "Connection Name",
				Type:        forms.FieldTypeText,
				Placeholder: "My Connection",
				Required:    true,
			},
			{
				Name:  "description",
				Label: "Description",
				Type:  forms.FieldTypeTextarea,
				Rows:  2,
			},
		},
	}
}

// connectionSection returns the common transport fields.
func connectionSection(defaultPort int) forms.Section {
	return forms.Section{
		Name:  "connection",
		Title: "Connection",
		Fields: []forms.Field{
			{
				Name:         "host",
				Label:        "Host",
				Type:         forms.FieldTypeText,
				Placeholder:  "localhost",
				Required:     true,
				DefaultValue: "localhost",
			},
			{
				Name:         "port",
				Label:        "Port",
				Type:         forms.FieldTypeNumber,
				Required:     true,
				DefaultValue: defaultPort,
				Min:          1,
				Max:          65535,
				Validate:     validatePortRange,
			},
			{
				Name:         "ssl",
				Label:        "Use SSL/TLS",
				Type:         forms.FieldTypeSwitch,
				DefaultValue: false,
			},
		},
	}
}

// advancedSection returns the three independent timeout fields with their
// documented bounds.
func advancedSection() forms.Section {
	return forms.Section{
		Name:  "advanced",
		Title: "Advanced",
		Fields: []forms.Field{
			{
				Name:         "timeout",
				Label:        "Timeout (seconds)",
				Type:         forms.FieldTypeNumber,
				DefaultValue: 30,
				Min:          MinTimeout,
				Max:          MaxTimeout,
				Validate:     boundedIntValidator("Timeout", MinTimeout, MaxTimeout),
			},
			{
				Name:         "connectionTimeout",
				Label:        "Connection Timeout (seconds)",
				Type:         forms.FieldTypeNumber,
				DefaultValue: 10,
				Min:          MinConnectionTimeout,
				Max:          MaxConnectionTimeout,
				Validate:     boundedIntValidator("Connection timeout", MinConnectionTimeout, MaxConnectionTimeout),
			},
			{
				Name:         "queryTimeout",
				Label:        "Query Timeout (seconds)",
				Type:         forms.FieldTypeNumber,
				DefaultValue: 60,
				Min:          MinQueryTimeout,
				Max:          MaxQueryTimeout,
				Validate:     boundedIntValidator("Query timeout", MinQueryTimeout, MaxQueryTimeout),
			},
		},
	}
}

func validatePortRange(value any, form forms.FormData) string {
	port, ok := forms.AsInt(value)
	if !ok || port < 1 || port > 65535 {
		return "Port must be between 1 and 65535"
	}
	return ""
}

func boundedIntValidator(label string, min, max int) forms.ValidateFunc {
	return func(value any, form forms.FormData) string {
		n, ok := forms.AsInt(value)
		if !ok || n < min || n > max {
			return fmt.Sprintf("%s must be between %d and %d seconds", label, min, max)
		}
		return ""
	}
}

// commonConfigFromForm extracts the shared identity and transport fields.
func commonConfigFromForm(dbType string, form forms.FormData) *ConnectionConfig {
	cfg := &ConnectionConfig{
		DBType:      dbType,
		ID:          forms.AsString(form["id"]),
		Name:        forms.AsString(form["name"]),
		Description: forms.AsString(form["description"]),
		Host:        forms.AsString(form["host"]),
		Username:    forms.AsString(form["username"]),
		Password:    forms.AsString(form["password"]),
		Database:    forms.AsString(form["database"]),
		SSL:         forms.AsBool(form["ssl"]),
	}
	if port, ok := forms.AsInt(form["port"]); ok {
		cfg.Port = port
	}
	if v, ok := forms.AsInt(form["timeout"]); ok {
		cfg.Timeout = v
	}
	if v, ok := forms.AsInt(form["connectionTimeout"]); ok {
		cfg.ConnectionTimeout = v
	}
	if v, ok := forms.AsInt(form["queryTimeout"]); ok {
		cfg.QueryTimeout = v
	}
	return cfg
}

// commonFormFromConfig is the inverse of commonConfigFromForm.
func commonFormFromConfig(cfg *ConnectionConfig) forms.FormData {
	form := forms.FormData{}
	if cfg == nil {
		return form
	}
	setNonEmpty(form, "id", cfg.ID)
	setNonEmpty(form, "name", cfg.Name)
	setNonEmpty(form, "description", cfg.Description)
	setNonEmpty(form, "host", cfg.Host)
	setNonEmpty(form, "username", cfg.Username)
	setNonEmpty(form, "password", cfg.Password)
	setNonEmpty(form, "database", cfg.Database)
	form["ssl"] = cfg.SSL
	if cfg.Port != 0 {
		form["port"] = cfg.Port
	}
	if cfg.Timeout != 0 {
		form["timeout"] = cfg.Timeout
	}
	if cfg.ConnectionTimeout != 0 {
		form["connectionTimeout"] = cfg.ConnectionTimeout
	}
	if cfg.QueryTimeout != 0 {
		form["queryTimeout"] = cfg.QueryTimeout
	}
	return form
}

func setNonEmpty(form forms.FormData, key, value string) {
	if value != "" {
		form[key] = value
	}
}
