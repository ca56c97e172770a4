package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/tempoview/tempoview/internal/bridge"
	"github.com/tempoview/tempoview/internal/connectors"
)

var _ Engine = (*IoTDBEngine)(nil)

// IoTDBEngine speaks IoTDB's SQL dialect. The only version split is the
// storage-group vocabulary: 0.13.x says SHOW STORAGE GROUP where 1.x and
// later say SHOW DATABASES.
type IoTDBEngine struct {
	Base
}

// NewIoTDBEngine constructs the engine for one version string.
func NewIoTDBEngine(version string, invoker bridge.Invoker) *IoTDBEngine {
	e := &IoTDBEngine{}
	e.Base = NewEngineBase(connectors.TypeIoTDB, version, Capabilities{
		Languages:      []Language{LanguageSQL},
		Operations:     []Operation{OperationSelect, OperationShow, OperationDescribe},
		MaxQuerySize:   1 << 20,
		TimeoutSeconds: 60,
		SupportsAsync:  true,
	}, invoker, e.GetDatabases)
	return e
}

// GetDatabases lists storage groups / databases.
func (e *IoTDBEngine) GetDatabases(ctx context.Context, connectionID string) ([]string, error) {
	return e.invokeStringList(ctx, bridge.CommandGetDatabases, bridge.MetadataArgs{ConnectionID: connectionID})
}

// GetTables lists the devices under one database.
func (e *IoTDBEngine) GetTables(ctx context.Context, connectionID, database string) ([]string, error) {
	return e.invokeStringList(ctx, bridge.CommandGetMeasurements, bridge.MetadataArgs{
		ConnectionID: connectionID,
		Database:     database,
	})
}

// GetFields lists the timeseries of one device, normalized to FieldInfo.
func (e *IoTDBEngine) GetFields(ctx context.Context, connectionID, database, table string) ([]FieldInfo, error) {
	return e.invokeFields(ctx, bridge.MetadataArgs{
		ConnectionID: connectionID,
		Database:     database,
		Measurement:  table,
	})
}

// BuildQuery renders the fixed operations as IoTDB SQL.
func (e *IoTDBEngine) BuildQuery(op Operation, params BuildParams) (string, error) {
	if !e.SupportsOperation(op) {
		return "", fmt.Errorf("iotdb: unsupported operation %q", op)
	}
	defer observeBuild(connectors.TypeIoTDB, LanguageSQL)

	switch op {
	case OperationSelect:
		return e.buildSelect(params)
	case OperationShow:
		if params.Database != "" {
			return fmt.Sprintf("SHOW DEVICES %s.**", params.Database), nil
		}
		if e.Version() == connectors.IoTDBVersion013 {
			return "SHOW STORAGE GROUP", nil
		}
		return "SHOW DATABASES", nil
	case OperationDescribe:
		path := devicePath(params)
		if path == "" {
			return "", fmt.Errorf("iotdb: describe requires a device path")
		}
		return fmt.Sprintf("SHOW TIMESERIES %s.**", path), nil
	default:
		return "", fmt.Errorf("iotdb: unsupported operation %q", op)
	}
}

func (e *IoTDBEngine) buildSelect(params BuildParams) (string, error) {
	path := devicePath(params)
	if path == "" {
		return "", fmt.Errorf("iotdb: select requires a device path")
	}

	projection := "*"
	if len(params.Fields) > 0 {
		projection = strings.Join(params.Fields, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", projection, path)
	var conds []string
	if params.TimeStart != "" {
		conds = append(conds, fmt.Sprintf("time >= %s", params.TimeStart))
	}
	if params.TimeEnd != "" {
		conds = append(conds, fmt.Sprintf("time <= %s", params.TimeEnd))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY TIME DESC")
	if params.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", params.Limit)
	}
	return b.String(), nil
}

// ExecuteQuery runs the query over the bridge.
func (e *IoTDBEngine) ExecuteQuery(ctx context.Context, req Request) (*Result, error) {
	if req.Language == "" {
		req.Language = LanguageSQL
	}
	return e.executeViaBridge(ctx, req)
}

// devicePath joins database and table into a full tree path. Tables already
// rooted at "root." are used as-is.
func devicePath(params BuildParams) string {
	if strings.HasPrefix(params.Table, "root.") {
		return params.Table
	}
	switch {
	case params.Database != "" && params.Table != "":
		return params.Database + "." + params.Table
	case params.Database != "":
		return params.Database
	case params.Table != "":
		return params.Table
	default:
		return ""
	}
}
