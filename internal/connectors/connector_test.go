package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tempoview/tempoview/internal/bridge"
	"github.com/tempoview/tempoview/internal/forms"
)

// stubInvoker returns a canned payload or error for every command.
type stubInvoker struct {
	payload any
	err     error
	lastCmd string
}

func (s *stubInvoker) Invoke(_ context.Context, command string, _ any) (json.RawMessage, error) {
	s.lastCmd = command
	if s.err != nil {
		return nil, s.err
	}
	raw, err := json.Marshal(s.payload)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func validInfluxForm() forms.FormData {
	return forms.FormData{
		"name":    "prod metrics",
		"host":    "influx.internal",
		"port":    8086,
		"version": InfluxVersion1,
	}
}

func TestBaseDefaultConfigForcesDefaultPort(t *testing.T) {
	c := NewInfluxDBConnector(nil)
	defaults := c.DefaultConfig()

	require.Equal(t, 8086, defaults["port"])
	require.Equal(t, "localhost", defaults["host"])
	require.Equal(t, InfluxVersion1, defaults["version"])
	// Defaults ignore visibility: 2.x-only fields with defaults would still
	// appear; timeout defaults always do.
	require.Equal(t, 30, defaults["timeout"])
	require.Equal(t, 10, defaults["connectionTimeout"])
	require.Equal(t, 60, defaults["queryTimeout"])
}

func TestBaseTestConnectionSuccessAttachesLatency(t *testing.T) {
	inv := &stubInvoker{payload: TestResult{Success: true}}
	c := NewInfluxDBConnector(inv)

	result := c.TestConnection(context.Background(), validInfluxForm())

	require.True(t, result.Success)
	require.Empty(t, result.Error)
	require.GreaterOrEqual(t, result.Latency, int64(0))
	require.Equal(t, bridge.CommandTestNewConnection, inv.lastCmd)
}

func TestBaseTestConnectionNeverReturnsError(t *testing.T) {
	inv := &stubInvoker{err: errors.New("boom")}
	c := NewInfluxDBConnector(inv)

	result := c.TestConnection(context.Background(), validInfluxForm())

	require.False(t, result.Success)
	require.Equal(t, "boom", result.Error)
	require.Equal(t, int64(0), result.Latency)
}

func TestPortValidationBounds(t *testing.T) {
	c := NewInfluxDBConnector(nil)

	for _, port := range []int{1, 80, 65535} {
		form := validInfluxForm()
		form["port"] = port
		errs := c.Validate(form)
		require.NotContains(t, errs, "port", "port %d should be valid", port)
	}
	for _, port := range []int{0, -1, 65536} {
		form := validInfluxForm()
		form["port"] = port
		errs := c.Validate(form)
		require.Equal(t, "Port must be between 1 and 65535", errs["port"], "port %d", port)
	}
}

func TestTimeoutValidationBounds(t *testing.T) {
	c := NewIoTDBConnector(nil)
	form := forms.FormData{
		"name":     "iot",
		"host":     "localhost",
		"port":     6667,
		"version":  IoTDBVersion1,
		"username": "root",
		"password": "root",
	}

	form["timeout"] = 4
	errs := c.Validate(form)
	require.Equal(t, "Timeout must be between 5 and 300 seconds", errs["timeout"])

	form["timeout"] = 300
	form["queryTimeout"] = 3601
	errs = c.Validate(form)
	require.NotContains(t, errs, "timeout")
	require.Equal(t, "Query timeout must be between 10 and 3600 seconds", errs["queryTimeout"])

	form["queryTimeout"] = 3600
	form["connectionTimeout"] = 5
	errs = c.Validate(form)
	require.Empty(t, errs)
}
