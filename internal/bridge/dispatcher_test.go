package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcherRoundTrip(t *testing.T) {
	d := NewDispatcher()
	err := d.Register(CommandGetDatabases, func(ctx context.Context, args json.RawMessage) (any, error) {
		var in ConnectionArgs
		require.NoError(t, json.Unmarshal(args, &in))
		require.Equal(t, "conn-1", in.ConnectionID)
		return []string{"telegraf", "_internal"}, nil
	})
	require.NoError(t, err)

	raw, err := d.Invoke(context.Background(), CommandGetDatabases, ConnectionArgs{ConnectionID: "conn-1"})
	require.NoError(t, err)

	var out []string
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Equal(t, []string{"telegraf", "_internal"}, out)
}

func TestDispatcherUnknownCommand(t *testing.T) {
	d := NewDispatcher()
	_, err := d.Invoke(context.Background(), "no_such_command", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown command")
}

func TestDispatcherRegisterValidation(t *testing.T) {
	d := NewDispatcher()
	require.ErrorIs(t, d.Register("", func(ctx context.Context, args json.RawMessage) (any, error) { return nil, nil }), ErrEmptyCommand)
	require.ErrorIs(t, d.Register("x", nil), ErrNilHandler)
}

func TestDispatcherRegisterAllAggregatesErrors(t *testing.T) {
	d := NewDispatcher()
	err := d.RegisterAll(map[string]HandlerFunc{
		"":   func(ctx context.Context, args json.RawMessage) (any, error) { return nil, nil },
		"ok": func(ctx context.Context, args json.RawMessage) (any, error) { return nil, nil },
	})
	require.Error(t, err)

	_, invokeErr := d.Invoke(context.Background(), "ok", nil)
	require.NoError(t, invokeErr)
}

func TestDispatcherHandlerErrorPropagates(t *testing.T) {
	d := NewDispatcher()
	boom := errors.New("boom")
	require.NoError(t, d.Register(CommandExecuteQuery, func(ctx context.Context, args json.RawMessage) (any, error) {
		return nil, boom
	}))

	_, err := d.Invoke(context.Background(), CommandExecuteQuery, QueryArgs{Query: "SELECT 1"})
	require.ErrorIs(t, err, boom)
}

func TestDispatcherRecoversHandlerPanic(t *testing.T) {
	d := NewDispatcher()
	require.NoError(t, d.Register("explode", func(ctx context.Context, args json.RawMessage) (any, error) {
		panic("kaboom")
	}))

	_, err := d.Invoke(context.Background(), "explode", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "kaboom")
}

func TestDefaultInvokerReplaceable(t *testing.T) {
	original := Default()
	t.Cleanup(func() { SetDefault(original) })

	d := NewDispatcher()
	SetDefault(d)
	require.Equal(t, Invoker(d), Default())

	SetDefault(nil)
	require.Equal(t, Invoker(d), Default(), "nil must not clear the default invoker")
}
