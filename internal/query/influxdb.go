package query

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tempoview/tempoview/internal/bridge"
	"github.com/tempoview/tempoview/internal/connectors"
	"github.com/tempoview/tempoview/pkg/logger"
)

var _ Engine = (*InfluxDBEngine)(nil)

// InfluxDBEngine builds and adapts queries for InfluxDB 1.x, 2.x and 3.x.
// The major version drives dialect selection: 1.x speaks InfluxQL only, 2.x
// prefers Flux, 3.x prefers SQL; both later lines keep InfluxQL compatibility.
type InfluxDBEngine struct {
	Base
}

// NewInfluxDBEngine constructs the engine for one version string ("1.x",
// "2.x", "3.x").
func NewInfluxDBEngine(version string, invoker bridge.Invoker) *InfluxDBEngine {
	e := &InfluxDBEngine{}
	e.Base = NewEngineBase(connectors.TypeInfluxDB, version, influxCapabilities(version), invoker, e.GetDatabases)
	return e
}

func influxCapabilities(version string) Capabilities {
	caps := Capabilities{
		Operations:     []Operation{OperationSelect, OperationShow, OperationDescribe},
		MaxQuerySize:   1 << 20,
		TimeoutSeconds: 60,
		SupportsAsync:  true,
	}
	switch influxMajor(version) {
	case 2:
		caps.Languages = []Language{LanguageFlux, LanguageInfluxQL}
	case 3:
		caps.Languages = []Language{LanguageSQL, LanguageInfluxQL}
	default:
		caps.Languages = []Language{LanguageInfluxQL}
	}
	return caps
}

func influxMajor(version string) int {
	switch {
	case strings.HasPrefix(version, "3"):
		return 3
	case strings.HasPrefix(version, "2"):
		return 2
	default:
		return 1
	}
}

// preferredLanguage is the first declared language for this version.
func (e *InfluxDBEngine) preferredLanguage() Language {
	return e.Capabilities().Languages[0]
}

// GetDatabases lists databases (1.x) or buckets (2.x+).
func (e *InfluxDBEngine) GetDatabases(ctx context.Context, connectionID string) ([]string, error) {
	return e.invokeStringList(ctx, bridge.CommandGetDatabases, bridge.MetadataArgs{ConnectionID: connectionID})
}

// GetTables lists the measurements of one database.
func (e *InfluxDBEngine) GetTables(ctx context.Context, connectionID, database string) ([]string, error) {
	return e.invokeStringList(ctx, bridge.CommandGetMeasurements, bridge.MetadataArgs{
		ConnectionID: connectionID,
		Database:     database,
	})
}

// GetFields lists the field keys of one measurement, normalized to FieldInfo.
func (e *InfluxDBEngine) GetFields(ctx context.Context, connectionID, database, table string) ([]FieldInfo, error) {
	return e.invokeFields(ctx, bridge.MetadataArgs{
		ConnectionID: connectionID,
		Database:     database,
		Measurement:  table,
	})
}

// BuildQuery renders one of the fixed operations in the version's preferred
// dialect.
func (e *InfluxDBEngine) BuildQuery(op Operation, params BuildParams) (string, error) {
	if !e.SupportsOperation(op) {
		return "", fmt.Errorf("influxdb: unsupported operation %q", op)
	}
	lang := e.preferredLanguage()
	defer observeBuild(connectors.TypeInfluxDB, lang)

	switch op {
	case OperationSelect:
		return e.buildSelect(params)
	case OperationShow:
		return e.buildShow(params), nil
	case OperationDescribe:
		return e.buildDescribe(params)
	default:
		return "", fmt.Errorf("influxdb: unsupported operation %q", op)
	}
}

func (e *InfluxDBEngine) buildSelect(params BuildParams) (string, error) {
	if params.Table == "" {
		return "", fmt.Errorf("influxdb: select requires a measurement")
	}
	if influxMajor(e.Version()) == 2 {
		return e.buildFluxSelect(params), nil
	}
	// InfluxQL on 1.x and SQL on 3.x share the same SELECT surface for the
	// shapes BuildQuery emits.
	return e.buildTabularSelect(params), nil
}

// buildFluxSelect emits a from |> range |> filter |> limit |> yield pipeline.
// The range falls back to the last hour when no explicit window is given.
func (e *InfluxDBEngine) buildFluxSelect(params BuildParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %q)", params.Database)

	if params.TimeStart != "" && params.TimeEnd != "" {
		fmt.Fprintf(&b, "\n  |> range(start: %s, stop: %s)", params.TimeStart, params.TimeEnd)
	} else if params.TimeStart != "" {
		fmt.Fprintf(&b, "\n  |> range(start: %s)", params.TimeStart)
	} else {
		b.WriteString("\n  |> range(start: -1h)")
	}

	fmt.Fprintf(&b, "\n  |> filter(fn: (r) => r._measurement == %q)", params.Table)
	for _, field := range params.Fields {
		fmt.Fprintf(&b, "\n  |> filter(fn: (r) => r._field == %q)", field)
	}
	if params.Limit > 0 {
		fmt.Fprintf(&b, "\n  |> limit(n: %d)", params.Limit)
	}
	b.WriteString("\n  |> yield()")
	return b.String()
}

// buildTabularSelect always orders by time descending; the time filter is
// applied only when a range was supplied.
func (e *InfluxDBEngine) buildTabularSelect(params BuildParams) string {
	projection := "*"
	if len(params.Fields) > 0 {
		quoted := make([]string, len(params.Fields))
		for i, f := range params.Fields {
			quoted[i] = fmt.Sprintf("%q", f)
		}
		projection = strings.Join(quoted, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %q", projection, params.Table)
	var conds []string
	if params.TimeStart != "" {
		conds = append(conds, fmt.Sprintf("time >= '%s'", params.TimeStart))
	}
	if params.TimeEnd != "" {
		conds = append(conds, fmt.Sprintf("time <= '%s'", params.TimeEnd))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY time DESC")
	if params.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", params.Limit)
	}
	return b.String()
}

func (e *InfluxDBEngine) buildShow(params BuildParams) string {
	if influxMajor(e.Version()) == 2 {
		return fmt.Sprintf("import \"influxdata/influxdb/schema\"\nschema.measurements(bucket: %q)", params.Database)
	}
	return "SHOW MEASUREMENTS"
}

func (e *InfluxDBEngine) buildDescribe(params BuildParams) (string, error) {
	if params.Table == "" {
		return "", fmt.Errorf("influxdb: describe requires a measurement")
	}
	switch influxMajor(e.Version()) {
	case 2:
		return fmt.Sprintf("import \"influxdata/influxdb/schema\"\nschema.measurementFieldKeys(bucket: %q, measurement: %q)", params.Database, params.Table), nil
	case 3:
		return fmt.Sprintf("SELECT column_name, data_type FROM information_schema.columns WHERE table_name = '%s'", params.Table), nil
	default:
		return fmt.Sprintf("SHOW FIELD KEYS FROM %q", params.Table), nil
	}
}

// ExecuteQuery runs the query over the bridge.
func (e *InfluxDBEngine) ExecuteQuery(ctx context.Context, req Request) (*Result, error) {
	if req.Language == "" {
		req.Language = e.preferredLanguage()
	}
	if req.Language == LanguageFlux {
		req.Query = e.OptimizeQuery(req.Query)
	}
	return e.executeViaBridge(ctx, req)
}

// adaptOutcome tags whether a translation actually happened, so the fallback
// path stays observable instead of silently returning the input.
type adaptOutcome struct {
	query      string
	translated bool
}

// AdaptQuery translates the small fixed set of metadata statement shapes
// between InfluxQL and Flux. Anything it does not recognize is returned
// unchanged with a logged warning; that limitation is deliberate.
func (e *InfluxDBEngine) AdaptQuery(query, targetVersion string) string {
	outcome := e.translateStatement(query, targetVersion)
	if !outcome.translated && outcome.query == query {
		logger.WithModule("query").Warn("query left unadapted",
			zap.String("engine", connectors.TypeInfluxDB),
			zap.String("target_version", targetVersion),
			zap.String("query", query),
		)
	}
	return outcome.query
}

func (e *InfluxDBEngine) translateStatement(query, targetVersion string) adaptOutcome {
	trimmed := strings.TrimSpace(query)
	upper := strings.ToUpper(trimmed)
	targetMajor := influxMajor(targetVersion)

	if targetMajor == 2 {
		switch {
		case upper == "SHOW DATABASES":
			return adaptOutcome{query: "buckets()", translated: true}
		case upper == "SHOW MEASUREMENTS":
			return adaptOutcome{
				query:      "import \"influxdata/influxdb/schema\"\nschema.measurements(bucket: v.bucket)",
				translated: true,
			}
		}
		return adaptOutcome{query: query}
	}

	// Flux → InfluxQL/SQL direction for the same two shapes.
	switch {
	case trimmed == "buckets()":
		return adaptOutcome{query: "SHOW DATABASES", translated: true}
	case strings.Contains(trimmed, "schema.measurements("):
		return adaptOutcome{query: "SHOW MEASUREMENTS", translated: true}
	}
	return adaptOutcome{query: query}
}

// OptimizeQuery bounds unbounded Flux scans by injecting a default one-hour
// range right after the source. Pipelines that already declare a range, and
// SHOW metadata statements, pass through untouched.
func (e *InfluxDBEngine) OptimizeQuery(query string) string {
	trimmed := strings.TrimSpace(query)
	if !strings.HasPrefix(trimmed, "from(") {
		return query
	}
	if strings.Contains(trimmed, "range(") {
		return query
	}

	idx := strings.Index(query, "|>")
	if idx < 0 {
		return strings.TrimRight(query, " \n") + "\n  |> range(start: -1h)"
	}
	return query[:idx] + "|> range(start: -1h)\n  " + query[idx:]
}
