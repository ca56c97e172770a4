package query

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/tempoview/tempoview/internal/bridge"
	"github.com/tempoview/tempoview/internal/connectors"
	"github.com/tempoview/tempoview/pkg/logger"
	"github.com/tempoview/tempoview/pkg/metrics"
)

// Engine is the capability-driven strategy contract one (dbType, version)
// pair implements. Metadata discovery and execution go through the command
// bridge; query building and dialect adaptation are pure.
type Engine interface {
	Capabilities() Capabilities
	SupportsOperation(op Operation) bool
	SupportsLanguage(lang Language) bool

	GetDatabases(ctx context.Context, connectionID string) ([]string, error)
	GetTables(ctx context.Context, connectionID, database string) ([]string, error)
	GetFields(ctx context.Context, connectionID, database, table string) ([]FieldInfo, error)

	BuildQuery(op Operation, params BuildParams) (string, error)
	ExecuteQuery(ctx context.Context, req Request) (*Result, error)

	AdaptQuery(query, targetVersion string) string
	AdaptResponse(resp *Result, sourceVersion string) *Result

	TestConnection(ctx context.Context, connectionID string) error
}

// NewEngine constructs the engine for a backend type and version.
func NewEngine(dbType, version string, invoker bridge.Invoker) (Engine, error) {
	switch dbType {
	case connectors.TypeInfluxDB:
		return NewInfluxDBEngine(version, invoker), nil
	case connectors.TypeIoTDB:
		return NewIoTDBEngine(version, invoker), nil
	default:
		return nil, fmt.Errorf("no query engine for database type %q", dbType)
	}
}

// Base carries the shared engine machinery: capability checks, identity
// adaptation, bridge-backed metadata calls and the error wrapping contract.
// Concrete engines embed it and inject their database listing for the default
// connection test.
type Base struct {
	dbType  string
	version string
	caps    Capabilities
	invoker bridge.Invoker
	log     *zap.Logger

	listDatabases func(ctx context.Context, connectionID string) ([]string, error)
}

// NewEngineBase wires the shared engine state. A nil invoker falls back to the
// process-wide bridge at call time.
func NewEngineBase(dbType, version string, caps Capabilities, invoker bridge.Invoker, listDatabases func(context.Context, string) ([]string, error)) Base {
	return Base{
		dbType:        dbType,
		version:       version,
		caps:          caps,
		invoker:       invoker,
		log:           logger.WithModule("query"),
		listDatabases: listDatabases,
	}
}

// Capabilities returns the immutable capability declaration.
func (b *Base) Capabilities() Capabilities { return b.caps }

// Version returns the backend version this engine was built for.
func (b *Base) Version() string { return b.version }

// SupportsOperation reports membership in the declared operation set.
func (b *Base) SupportsOperation(op Operation) bool {
	for _, o := range b.caps.Operations {
		if o == op {
			return true
		}
	}
	return false
}

// SupportsLanguage reports membership in the declared language set.
func (b *Base) SupportsLanguage(lang Language) bool {
	for _, l := range b.caps.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// AdaptQuery is identity by default; dialect-aware engines override it.
func (b *Base) AdaptQuery(query, _ string) string { return query }

// AdaptResponse is identity by default.
func (b *Base) AdaptResponse(resp *Result, _ string) *Result { return resp }

// TestConnection succeeds iff listing databases does.
func (b *Base) TestConnection(ctx context.Context, connectionID string) error {
	if b.listDatabases == nil {
		return fmt.Errorf("%s query failed: no database listing available", b.dbType)
	}
	_, err := b.listDatabases(ctx, connectionID)
	return err
}

// wrapQueryError logs the failing query with its parameters and wraps the
// original error so callers can still see its message by string inspection.
func (b *Base) wrapQueryError(err error, query string, params any) error {
	if err == nil {
		return nil
	}
	b.log.Error("query failed",
		zap.String("engine", b.dbType),
		zap.String("version", b.version),
		zap.String("query", query),
		zap.Any("params", params),
		zap.Error(err),
	)
	return fmt.Errorf("%s query failed: %w", b.dbType, err)
}

func (b *Base) bridge() bridge.Invoker {
	if b.invoker != nil {
		return b.invoker
	}
	return bridge.Default()
}

// invokeStringList runs a metadata command expected to yield a string array.
func (b *Base) invokeStringList(ctx context.Context, command string, args bridge.MetadataArgs) ([]string, error) {
	raw, err := b.bridge().Invoke(ctx, command, args)
	if err != nil {
		return nil, b.wrapQueryError(err, command, args)
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, b.wrapQueryError(fmt.Errorf("malformed %s result: %v", command, err), command, args)
	}
	return names, nil
}

// invokeFields runs get_field_keys and normalizes whichever shape comes back.
func (b *Base) invokeFields(ctx context.Context, args bridge.MetadataArgs) ([]FieldInfo, error) {
	raw, err := b.bridge().Invoke(ctx, bridge.CommandGetFieldKeys, args)
	if err != nil {
		return nil, b.wrapQueryError(err, bridge.CommandGetFieldKeys, args)
	}
	fields, err := normalizeFields(raw)
	if err != nil {
		return nil, b.wrapQueryError(err, bridge.CommandGetFieldKeys, args)
	}
	return fields, nil
}

// executeViaBridge runs execute_query and decodes the normalized result.
func (b *Base) executeViaBridge(ctx context.Context, req Request) (*Result, error) {
	args := bridge.QueryArgs{
		ConnectionID: req.ConnectionID,
		Query:        req.Query,
		Database:     req.Database,
		Language:     string(req.Language),
		Parameters:   req.Parameters,
		Timeout:      req.Timeout,
		MaxRows:      req.MaxRows,
	}
	raw, err := b.bridge().Invoke(ctx, bridge.CommandExecuteQuery, args)
	if err != nil {
		return nil, b.wrapQueryError(err, req.Query, req.Parameters)
	}
	result := &Result{}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, b.wrapQueryError(fmt.Errorf("malformed query result: %v", err), req.Query, req.Parameters)
	}
	return result, nil
}

// normalizeFields accepts either a bare string array or an object array and
// produces FieldInfo either way.
func normalizeFields(raw json.RawMessage) ([]FieldInfo, error) {
	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		fields := make([]FieldInfo, 0, len(names))
		for _, name := range names {
			fields = append(fields, FieldInfo{Name: name, Type: "unknown", Nullable: true})
		}
		return fields, nil
	}

	var fields []FieldInfo
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("unrecognized field list shape: %v", err)
	}
	for i := range fields {
		if fields[i].Type == "" {
			fields[i].Type = "unknown"
		}
	}
	return fields, nil
}

// observeBuild records a built query per backend and dialect.
func observeBuild(dbType string, lang Language) {
	metrics.QueriesBuilt.WithLabelValues(dbType, string(lang)).Inc()
}
