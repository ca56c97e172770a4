// Package dbservice exposes one uniform facade per backend type over the
// connector model, the query engines and the command bridge.
package dbservice

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/tempoview/tempoview/internal/bridge"
	"github.com/tempoview/tempoview/internal/connectors"
	"github.com/tempoview/tempoview/internal/forms"
	"github.com/tempoview/tempoview/internal/query"
	"github.com/tempoview/tempoview/pkg/logger"
)

// OperationResult is the structured failure shape connection-lifecycle
// operations return instead of propagating bridge errors.
type OperationResult struct {
	Success      bool                   `json:"success"`
	ConnectionID string                 `json:"connectionId,omitempty"`
	Error        string                 `json:"error,omitempty"`
	Fields       forms.ValidationErrors `json:"fields,omitempty"`
}

// DatabaseService is a thin facade over the bridge for one backend type.
//
// The error contract is deliberately asymmetric: connection and query
// operations (CreateConnection, TestConnection, ExecuteQuery, DeleteConnection)
// convert bridge rejections into structured failure results and never return
// an error, while metadata getters wrap and return the error to the caller.
type DatabaseService struct {
	dbType    string
	connector connectors.Connector
	engine    query.Engine
	invoker   bridge.Invoker
	log       *zap.Logger
}

// defaultEngineVersion picks the version a service's engine is built for when
// no connection-specific version is known.
func defaultEngineVersion(dbType string) string {
	switch dbType {
	case connectors.TypeInfluxDB:
		return connectors.InfluxVersion1
	case connectors.TypeIoTDB:
		return connectors.IoTDBVersion1
	default:
		return ""
	}
}

// NewDatabaseService builds the facade for one backend type. Backends without
// a query engine (object storage) get a nil engine; their metadata and query
// operations report that the backend does not support them.
func NewDatabaseService(dbType string, invoker bridge.Invoker) *DatabaseService {
	connector := connectors.GetConnectorFactory().Get(dbType)
	engine, err := query.NewEngine(dbType, defaultEngineVersion(dbType), invoker)
	if err != nil {
		engine = nil
	}
	return &DatabaseService{
		dbType:    dbType,
		connector: connector,
		engine:    engine,
		invoker:   invoker,
		log:       logger.WithModule("dbservice"),
	}
}

// Connector returns the backing connector, nil when the type is unknown.
func (s *DatabaseService) Connector() connectors.Connector { return s.connector }

// Engine returns the backing query engine, nil for engine-less backends.
func (s *DatabaseService) Engine() query.Engine { return s.engine }

func (s *DatabaseService) bridge() bridge.Invoker {
	if s.invoker != nil {
		return s.invoker
	}
	return bridge.Default()
}

// CreateConnection validates the form against the connector and rejects
// locally before any bridge call; only valid configs ever reach the backend.
func (s *DatabaseService) CreateConnection(ctx context.Context, form forms.FormData) *OperationResult {
	if s.connector == nil {
		return &OperationResult{Success: false, Error: fmt.Sprintf("unknown database type %q", s.dbType)}
	}

	if errs := s.connector.Validate(form); len(errs) > 0 {
		return &OperationResult{Success: false, Error: "validation failed", Fields: errs}
	}

	cfg, err := s.connector.ToConnectionConfig(form)
	if err != nil {
		return &OperationResult{Success: false, Error: err.Error()}
	}

	raw, err := s.bridge().Invoke(ctx, bridge.CommandCreateConnection, bridge.TestConnectionArgs{Config: cfg})
	if err != nil {
		s.log.Warn("create connection rejected",
			zap.String("db_type", s.dbType),
			zap.Error(err),
		)
		return &OperationResult{Success: false, Error: err.Error()}
	}

	result := &OperationResult{Success: true}
	var created struct {
		ConnectionID string `json:"connectionId"`
		ID           string `json:"id"`
	}
	if err := json.Unmarshal(raw, &created); err == nil {
		result.ConnectionID = created.ConnectionID
		if result.ConnectionID == "" {
			result.ConnectionID = created.ID
		}
	}
	return result
}

// TestConnection delegates to the connector, which already returns a
// failure-shaped result instead of erroring.
func (s *DatabaseService) TestConnection(ctx context.Context, form forms.FormData) *connectors.TestResult {
	if s.connector == nil {
		return &connectors.TestResult{Success: false, Error: fmt.Sprintf("unknown database type %q", s.dbType)}
	}
	return s.connector.TestConnection(ctx, form)
}

// DeleteConnection removes a stored connection through the bridge.
func (s *DatabaseService) DeleteConnection(ctx context.Context, connectionID string) *OperationResult {
	_, err := s.bridge().Invoke(ctx, bridge.CommandDeleteConnection, bridge.ConnectionArgs{ConnectionID: connectionID})
	if err != nil {
		return &OperationResult{Success: false, ConnectionID: connectionID, Error: err.Error()}
	}
	return &OperationResult{Success: true, ConnectionID: connectionID}
}

// ExecuteQuery runs a query and converts engine errors into a failure-shaped
// result. Callers inspect Result.Success, not an error return.
func (s *DatabaseService) ExecuteQuery(ctx context.Context, req query.Request) *query.Result {
	if s.engine == nil {
		return &query.Result{Success: false, Error: fmt.Sprintf("%s does not support queries", s.dbType)}
	}
	result, err := s.engine.ExecuteQuery(ctx, req)
	if err != nil {
		return &query.Result{Success: false, Error: err.Error()}
	}
	if result == nil {
		return &query.Result{Success: false, Error: "empty query result"}
	}
	return result
}

// ValidationVerdict is the result of backend-assisted query validation. Local
// is set when the bridge could not assist and the caller should rely on its
// own checks; a local verdict never claims the query is invalid.
type ValidationVerdict struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
	Local bool   `json:"local"`
}

// FormatOutcome is the result of backend-assisted query formatting. On bridge
// failure the input comes back unchanged with Local set.
type FormatOutcome struct {
	Formatted string `json:"formatted"`
	Local     bool   `json:"local"`
}

// ValidateQuery asks the backend to validate a statement. Bridge rejection is
// not an error: the caller gets a local verdict and falls back to its own
// validation.
func (s *DatabaseService) ValidateQuery(ctx context.Context, connectionID, q string) *ValidationVerdict {
	raw, err := s.bridge().Invoke(ctx, bridge.CommandValidateQuery, bridge.QueryArgs{
		ConnectionID: connectionID,
		Query:        q,
	})
	if err != nil {
		s.log.Debug("query validation unavailable, falling back to local checks",
			zap.String("db_type", s.dbType),
			zap.Error(err),
		)
		return &ValidationVerdict{Valid: true, Local: true}
	}

	verdict := &ValidationVerdict{}
	if err := json.Unmarshal(raw, verdict); err != nil {
		return &ValidationVerdict{Valid: true, Local: true}
	}
	return verdict
}

// FormatQuery asks the backend to pretty-print a statement. Bridge rejection
// returns the input unchanged.
func (s *DatabaseService) FormatQuery(ctx context.Context, connectionID, q string) *FormatOutcome {
	raw, err := s.bridge().Invoke(ctx, bridge.CommandFormatQuery, bridge.QueryArgs{
		ConnectionID: connectionID,
		Query:        q,
	})
	if err != nil {
		s.log.Debug("query formatting unavailable, returning input unchanged",
			zap.String("db_type", s.dbType),
			zap.Error(err),
		)
		return &FormatOutcome{Formatted: q, Local: true}
	}

	outcome := &FormatOutcome{}
	if err := json.Unmarshal(raw, outcome); err != nil || outcome.Formatted == "" {
		return &FormatOutcome{Formatted: q, Local: true}
	}
	return outcome
}

// GetDatabases lists databases; errors are wrapped and returned.
func (s *DatabaseService) GetDatabases(ctx context.Context, connectionID string) ([]string, error) {
	if s.engine == nil {
		return nil, fmt.Errorf("%s query failed: backend has no query engine", s.dbType)
	}
	return s.engine.GetDatabases(ctx, connectionID)
}

// GetTables lists measurements/devices; errors are wrapped and returned.
func (s *DatabaseService) GetTables(ctx context.Context, connectionID, database string) ([]string, error) {
	if s.engine == nil {
		return nil, fmt.Errorf("%s query failed: backend has no query engine", s.dbType)
	}
	return s.engine.GetTables(ctx, connectionID, database)
}

// GetFields lists normalized field descriptors; errors are wrapped and returned.
func (s *DatabaseService) GetFields(ctx context.Context, connectionID, database, table string) ([]query.FieldInfo, error) {
	if s.engine == nil {
		return nil, fmt.Errorf("%s query failed: backend has no query engine", s.dbType)
	}
	return s.engine.GetFields(ctx, connectionID, database, table)
}

// GetTagKeys lists tag keys for one measurement; errors are wrapped and
// returned like the other metadata getters.
func (s *DatabaseService) GetTagKeys(ctx context.Context, connectionID, database, table string) ([]string, error) {
	raw, err := s.bridge().Invoke(ctx, bridge.CommandGetTagKeys, bridge.MetadataArgs{
		ConnectionID: connectionID,
		Database:     database,
		Measurement:  table,
	})
	if err != nil {
		s.log.Error("tag key listing failed",
			zap.String("db_type", s.dbType),
			zap.String("connection_id", connectionID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s query failed: %w", s.dbType, err)
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("%s query failed: malformed tag key result: %v", s.dbType, err)
	}
	return keys, nil
}

// GetConnectionStatus fetches the backend-reported status string.
func (s *DatabaseService) GetConnectionStatus(ctx context.Context, connectionID string) (string, error) {
	raw, err := s.bridge().Invoke(ctx, bridge.CommandGetConnectionStatus, bridge.ConnectionArgs{ConnectionID: connectionID})
	if err != nil {
		return "", fmt.Errorf("%s query failed: %w", s.dbType, err)
	}
	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &status); err != nil {
		return "", fmt.Errorf("%s query failed: malformed status result: %v", s.dbType, err)
	}
	return status.Status, nil
}
