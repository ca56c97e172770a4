package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tempoview/tempoview/internal/bridge"
	"github.com/tempoview/tempoview/internal/connectors"
)

// RegisterHandlers binds the connection-lifecycle commands to this store on
// the given dispatcher. Query execution commands are wired per deployment.
func RegisterHandlers(d *bridge.Dispatcher, s *Store) error {
	return d.RegisterAll(map[string]bridge.HandlerFunc{
		bridge.CommandCreateConnection:    s.handleCreate,
		bridge.CommandDeleteConnection:    s.handleDelete,
		bridge.CommandGetConnectionStatus: s.handleStatus,
		bridge.CommandTestConnection:      s.handleTestStored,
		bridge.CommandTestNewConnection:   handleTestNew,
	})
}

type configArgs struct {
	Config connectors.ConnectionConfig `json:"config"`
}

func (s *Store) handleCreate(ctx context.Context, raw json.RawMessage) (any, error) {
	var args configArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("create_connection: decode args: %w", err)
	}
	row, err := s.Create(ctx, &args.Config)
	if err != nil {
		return nil, err
	}
	return map[string]string{"connectionId": row.ID}, nil
}

func (s *Store) handleDelete(ctx context.Context, raw json.RawMessage) (any, error) {
	var args bridge.ConnectionArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("delete_connection: decode args: %w", err)
	}
	if err := s.Delete(ctx, args.ConnectionID); err != nil {
		return nil, err
	}
	return map[string]bool{"success": true}, nil
}

func (s *Store) handleStatus(ctx context.Context, raw json.RawMessage) (any, error) {
	var args bridge.ConnectionArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("get_connection_status: decode args: %w", err)
	}
	row, err := s.getRow(ctx, args.ConnectionID)
	if err != nil {
		return nil, err
	}
	return map[string]string{"status": row.Status}, nil
}

// handleTestStored dials the stored connection's endpoint.
func (s *Store) handleTestStored(ctx context.Context, raw json.RawMessage) (any, error) {
	var args bridge.ConnectionArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("test_connection: decode args: %w", err)
	}
	cfg, err := s.Get(ctx, args.ConnectionID)
	if err != nil {
		return nil, err
	}
	return dialTest(cfg), nil
}

// handleTestNew dials the endpoint of a not-yet-stored config. Reachability
// is all a plain TCP dial can prove; protocol-level checks belong to the
// native backend.
func handleTestNew(_ context.Context, raw json.RawMessage) (any, error) {
	var args configArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("test_new_connection: decode args: %w", err)
	}
	return dialTest(&args.Config), nil
}

func dialTest(cfg *connectors.ConnectionConfig) *connectors.TestResult {
	if cfg.Host == "" || cfg.Port == 0 {
		return &connectors.TestResult{Success: false, Error: "connection has no dialable endpoint"}
	}

	timeout := time.Duration(cfg.ConnectionTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	address := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return &connectors.TestResult{Success: false, Error: err.Error()}
	}
	_ = conn.Close()
	return &connectors.TestResult{Success: true}
}
