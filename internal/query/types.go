package query

// Language identifies a query dialect an engine can speak.
type Language string

const (
	LanguageInfluxQL Language = "influxql"
	LanguageFlux     Language = "flux"
	LanguageSQL      Language = "sql"
)

// Operation is the small fixed set of query shapes BuildQuery understands.
type Operation string

const (
	OperationSelect   Operation = "select"
	OperationShow     Operation = "show"
	OperationDescribe Operation = "describe"
)

// Capabilities declares what one engine instance supports. Derived from the
// (dbType, version) pair at construction and never mutated afterwards.
type Capabilities struct {
	Languages           []Language  `json:"languages"`
	Operations          []Operation `json:"supportedOperations"`
	MaxQuerySize        int         `json:"maxQuerySize"`
	TimeoutSeconds      int         `json:"timeoutSeconds"`
	SupportsBatch       bool        `json:"supportsBatch"`
	SupportsTransaction bool        `json:"supportsTransaction"`
	SupportsAsync       bool        `json:"supportsAsync"`
}

// FieldInfo is the normalized column/field descriptor every engine returns
// from GetFields, whatever shape the backend produced.
type FieldInfo struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Nullable    bool              `json:"nullable"`
	Description string            `json:"description,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// BuildParams feeds BuildQuery. Table is the measurement/device/table name;
// the time range is applied only when supplied.
type BuildParams struct {
	Database  string
	Table     string
	Fields    []string
	TimeStart string
	TimeEnd   string
	Limit     int
}

// Request is a query execution request addressed to a stored connection.
type Request struct {
	ConnectionID string         `json:"connectionId"`
	Query        string         `json:"query"`
	Database     string         `json:"database,omitempty"`
	Language     Language       `json:"language,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	Timeout      int            `json:"timeout,omitempty"`
	MaxRows      int            `json:"maxRows,omitempty"`
}

// Result is the normalized execution outcome. ExecutionTime is milliseconds
// as reported by the backend.
type Result struct {
	Success       bool     `json:"success"`
	Columns       []string `json:"columns,omitempty"`
	Rows          [][]any  `json:"rows,omitempty"`
	RowCount      int      `json:"rowCount"`
	ExecutionTime int64    `json:"executionTime"`
	Error         string   `json:"error,omitempty"`
}
