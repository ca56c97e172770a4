package query

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tempoview/tempoview/internal/bridge"
)

type stubInvoker struct {
	payload  any
	err      error
	lastCmd  string
	lastArgs any
}

func (s *stubInvoker) Invoke(_ context.Context, command string, args any) (json.RawMessage, error) {
	s.lastCmd = command
	s.lastArgs = args
	if s.err != nil {
		return nil, s.err
	}
	raw, err := json.Marshal(s.payload)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func TestInfluxDBLanguageSelectionByVersion(t *testing.T) {
	e1 := NewInfluxDBEngine("1.x", nil)
	require.Equal(t, []Language{LanguageInfluxQL}, e1.Capabilities().Languages)
	require.False(t, e1.SupportsLanguage(LanguageFlux))

	e2 := NewInfluxDBEngine("2.x", nil)
	require.Equal(t, []Language{LanguageFlux, LanguageInfluxQL}, e2.Capabilities().Languages)
	require.True(t, e2.SupportsLanguage(LanguageInfluxQL))

	e3 := NewInfluxDBEngine("3.x", nil)
	require.Equal(t, []Language{LanguageSQL, LanguageInfluxQL}, e3.Capabilities().Languages)
	require.True(t, e3.SupportsOperation(OperationDescribe))
	require.False(t, e3.SupportsOperation(Operation("insert")))
}

func TestInfluxDBBuildSelectV1(t *testing.T) {
	e := NewInfluxDBEngine("1.x", nil)
	q, err := e.BuildQuery(OperationSelect, BuildParams{Table: "cpu", Limit: 10})
	require.NoError(t, err)
	require.Contains(t, q, `FROM "cpu"`)
	require.Contains(t, q, "ORDER BY time DESC")
	require.Contains(t, q, "LIMIT 10")
	require.NotContains(t, q, "WHERE", "no time range supplied")
}

func TestInfluxDBBuildSelectV1WithTimeRange(t *testing.T) {
	e := NewInfluxDBEngine("1.x", nil)
	q, err := e.BuildQuery(OperationSelect, BuildParams{
		Table:     "cpu",
		TimeStart: "2026-01-01T00:00:00Z",
		TimeEnd:   "2026-01-02T00:00:00Z",
	})
	require.NoError(t, err)
	require.Contains(t, q, "WHERE time >= '2026-01-01T00:00:00Z' AND time <= '2026-01-02T00:00:00Z'")
}

func TestInfluxDBBuildSelectV2Flux(t *testing.T) {
	e := NewInfluxDBEngine("2.x", nil)
	q, err := e.BuildQuery(OperationSelect, BuildParams{Database: "metrics", Table: "cpu", Limit: 10})
	require.NoError(t, err)
	require.Contains(t, q, `from(bucket:`)
	require.Contains(t, q, `|> filter(fn: (r) => r._measurement == "cpu")`)
	require.Contains(t, q, "|> limit(n: 10)")
	require.Contains(t, q, "|> yield()")
	require.Contains(t, q, "|> range(start: -1h)", "unbounded selects get the default window")
}

func TestInfluxDBBuildShowAndDescribe(t *testing.T) {
	e1 := NewInfluxDBEngine("1.x", nil)
	q, err := e1.BuildQuery(OperationShow, BuildParams{})
	require.NoError(t, err)
	require.Equal(t, "SHOW MEASUREMENTS", q)

	q, err = e1.BuildQuery(OperationDescribe, BuildParams{Table: "cpu"})
	require.NoError(t, err)
	require.Equal(t, `SHOW FIELD KEYS FROM "cpu"`, q)

	e2 := NewInfluxDBEngine("2.x", nil)
	q, err = e2.BuildQuery(OperationShow, BuildParams{Database: "metrics"})
	require.NoError(t, err)
	require.Contains(t, q, `schema.measurements(bucket: "metrics")`)

	_, err = e1.BuildQuery(OperationSelect, BuildParams{})
	require.Error(t, err, "select without a measurement")
}

func TestInfluxDBAdaptQueryTranslatesKnownShapes(t *testing.T) {
	e := NewInfluxDBEngine("1.x", nil)

	require.Equal(t, "buckets()", e.AdaptQuery("SHOW DATABASES", "2.x"))
	require.Contains(t, e.AdaptQuery("SHOW MEASUREMENTS", "2.x"), "schema.measurements(")
	require.Equal(t, "SHOW DATABASES", e.AdaptQuery("buckets()", "1.x"))
	require.Equal(t, "SHOW MEASUREMENTS", e.AdaptQuery("import \"influxdata/influxdb/schema\"\nschema.measurements(bucket: v.bucket)", "1.x"))
}

func TestInfluxDBAdaptQueryUnknownShapeUnchanged(t *testing.T) {
	e := NewInfluxDBEngine("1.x", nil)
	q := `SELECT mean("usage") FROM "cpu" GROUP BY time(5m)`
	require.Equal(t, q, e.AdaptQuery(q, "2.x"))
}

func TestInfluxDBOptimizeQuery(t *testing.T) {
	e := NewInfluxDBEngine("2.x", nil)

	optimized := e.OptimizeQuery(`from(bucket: "metrics") |> filter(fn: (r) => r._measurement == "cpu")`)
	require.Contains(t, optimized, "|> range(start: -1h)")
	rangeIdx := indexOf(optimized, "range(")
	filterIdx := indexOf(optimized, "filter(")
	require.Less(t, rangeIdx, filterIdx, "range goes before the filter")

	ranged := `from(bucket: "metrics") |> range(start: -5m) |> yield()`
	require.Equal(t, ranged, e.OptimizeQuery(ranged))

	show := "SHOW MEASUREMENTS"
	require.Equal(t, show, e.OptimizeQuery(show))

	bare := `from(bucket: "metrics")`
	require.Contains(t, e.OptimizeQuery(bare), "|> range(start: -1h)")
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestInfluxDBQueryErrorWrapping(t *testing.T) {
	inv := &stubInvoker{err: errors.New("bucket not found")}
	e := NewInfluxDBEngine("2.x", inv)

	_, err := e.ExecuteQuery(context.Background(), Request{ConnectionID: "c1", Query: "buckets()"})
	require.Error(t, err)
	require.Equal(t, "influxdb query failed: bucket not found", err.Error())
	require.Contains(t, err.Error(), "bucket not found", "original message recoverable by inspection")
}

func TestInfluxDBExecuteQueryBoundsFluxScans(t *testing.T) {
	inv := &stubInvoker{payload: Result{Success: true}}
	e := NewInfluxDBEngine("2.x", inv)

	_, err := e.ExecuteQuery(context.Background(), Request{
		ConnectionID: "c1",
		Query:        `from(bucket: "metrics") |> filter(fn: (r) => r._measurement == "cpu")`,
		Language:     LanguageFlux,
	})
	require.NoError(t, err)

	args := inv.lastArgs.(bridge.QueryArgs)
	require.Contains(t, args.Query, "|> range(start: -1h)")
	require.Less(t, indexOf(args.Query, "range("), indexOf(args.Query, "filter("))
}

func TestInfluxDBTestConnectionUsesDatabaseListing(t *testing.T) {
	inv := &stubInvoker{payload: []string{"metrics"}}
	e := NewInfluxDBEngine("1.x", inv)
	require.NoError(t, e.TestConnection(context.Background(), "c1"))

	inv.err = errors.New("unreachable")
	require.Error(t, e.TestConnection(context.Background(), "c1"))
}

func TestInfluxDBMetadataGetters(t *testing.T) {
	inv := &stubInvoker{payload: []string{"telegraf", "_internal"}}
	e := NewInfluxDBEngine("1.x", inv)

	dbs, err := e.GetDatabases(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, []string{"telegraf", "_internal"}, dbs)

	tables, err := e.GetTables(context.Background(), "c1", "telegraf")
	require.NoError(t, err)
	require.Len(t, tables, 2)
}

func TestNormalizeFieldsAcceptsBothShapes(t *testing.T) {
	fields, err := normalizeFields(json.RawMessage(`["usage_idle","usage_user"]`))
	require.NoError(t, err)
	require.Len(t, fields, 2)
	require.Equal(t, "usage_idle", fields[0].Name)
	require.Equal(t, "unknown", fields[0].Type)
	require.True(t, fields[0].Nullable)

	fields, err = normalizeFields(json.RawMessage(`[{"name":"usage_idle","type":"float","nullable":false}]`))
	require.NoError(t, err)
	require.Len(t, fields, 1)
	require.Equal(t, "float", fields[0].Type)
	require.False(t, fields[0].Nullable)

	_, err = normalizeFields(json.RawMessage(`{"not":"a list"}`))
	require.Error(t, err)
}

func TestNewEngineFactory(t *testing.T) {
	e, err := NewEngine("influxdb", "2.x", nil)
	require.NoError(t, err)
	require.IsType(t, &InfluxDBEngine{}, e)

	e, err = NewEngine("iotdb", "1.x", nil)
	require.NoError(t, err)
	require.IsType(t, &IoTDBEngine{}, e)

	_, err = NewEngine("object-storage", "", nil)
	require.Error(t, err)
}
