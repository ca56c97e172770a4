package bridge

import (
	"context"
	"encoding/json"
	"sync"
)

// Command names understood by the backend process. The frontend core depends
// on these contracts only; the handler implementations live behind Invoker.
const (
	CommandTestConnection      = "test_connection"
	CommandTestNewConnection   = "test_new_connection"
	CommandCreateConnection    = "create_connection"
	CommandDeleteConnection    = "delete_connection"
	CommandGetConnectionStatus = "get_connection_status"
	CommandGetDatabases        = "get_databases"
	CommandGetMeasurements     = "get_measurements"
	CommandGetFieldKeys        = "get_field_keys"
	CommandGetTagKeys          = "get_tag_keys"
	CommandExecuteQuery        = "execute_query"
	CommandValidateQuery       = "validate_query"
	CommandFormatQuery         = "format_query"
)

// Invoker is the async command bridge contract: name plus JSON-encodable args
// in, raw JSON result out. Implementations may fail with any error; callers
// decide whether to wrap or convert it.
type Invoker interface {
	Invoke(ctx context.Context, command string, args any) (json.RawMessage, error)
}

// TestConnectionArgs carries the configuration under test.
type TestConnectionArgs struct {
	Config any `json:"config"`
}

// ConnectionArgs addresses an existing connection by identifier.
type ConnectionArgs struct {
	ConnectionID string `json:"connectionId"`
}

// MetadataArgs scopes metadata discovery commands.
type MetadataArgs struct {
	ConnectionID string `json:"connectionId"`
	Database     string `json:"database,omitempty"`
	Measurement  string `json:"measurement,omitempty"`
}

// QueryArgs carries a query execution request.
type QueryArgs struct {
	ConnectionID string         `json:"connectionId"`
	Query        string         `json:"query"`
	Database     string         `json:"database,omitempty"`
	Language     string         `json:"language,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	Timeout      int            `json:"timeout,omitempty"`
	MaxRows      int            `json:"maxRows,omitempty"`
}

var (
	defaultMu      sync.RWMutex
	defaultInvoker Invoker = NewDispatcher()
)

// SetDefault installs the process-wide invoker used by components constructed
// without an explicit one. Called once during bootstrap.
func SetDefault(inv Invoker) {
	if inv == nil {
		return
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultInvoker = inv
}

// Default returns the process-wide invoker.
func Default() Invoker {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultInvoker
}
