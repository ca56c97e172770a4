package store

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tempoview/tempoview/internal/bridge"
	"github.com/tempoview/tempoview/internal/connectors"
	"github.com/tempoview/tempoview/internal/database/testutil"
	apperrors "github.com/tempoview/tempoview/pkg/errors"
)

func testKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := testutil.MustOpenTestDB(t, AutoMigrate)
	s, err := NewStore(db, testKey())
	require.NoError(t, err)
	return s
}

func sampleConfig() *connectors.ConnectionConfig {
	return &connectors.ConnectionConfig{
		Name:     "prod influx",
		DBType:   connectors.TypeInfluxDB,
		Host:     "influx.internal",
		Port:     8086,
		Username: "reader",
		Password: "hunter2",
		Version:  connectors.InfluxVersion2,
		V2Config: &connectors.InfluxV2Config{
			Organization: "acme",
			Bucket:       "metrics",
			APIToken:     "tok-very-secret",
		},
		DriverConfig: map[string]map[string]any{
			"influxdb": {"customHeader": "x"},
		},
	}
}

func TestStoreCreateAssignsID(t *testing.T) {
	s := newTestStore(t)

	row, err := s.Create(context.Background(), sampleConfig())
	require.NoError(t, err)
	require.NotEmpty(t, row.ID)
	require.Equal(t, StatusDisconnected, row.Status)
}

func TestStoreSecretsEncryptedAtRest(t *testing.T) {
	s := newTestStore(t)

	row, err := s.Create(context.Background(), sampleConfig())
	require.NoError(t, err)

	stored := string(row.Config)
	require.NotContains(t, stored, "hunter2")
	require.NotContains(t, stored, "tok-very-secret")
	require.NotEmpty(t, row.Secret)
	require.False(t, strings.Contains(row.Secret, "hunter2"))
}

func TestStoreGetRoundTripsConfig(t *testing.T) {
	s := newTestStore(t)

	row, err := s.Create(context.Background(), sampleConfig())
	require.NoError(t, err)

	cfg, err := s.Get(context.Background(), row.ID)
	require.NoError(t, err)
	require.Equal(t, "prod influx", cfg.Name)
	require.Equal(t, "hunter2", cfg.Password)
	require.NotNil(t, cfg.V2Config)
	require.Equal(t, "tok-very-secret", cfg.V2Config.APIToken)
	require.Equal(t, "acme", cfg.V2Config.Organization)
	require.Equal(t, "x", cfg.DriverConfig["influxdb"]["customHeader"])
}

func TestStoreGetMissingReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, apperrors.ErrConnectionNotFound)
}

func TestStoreDeleteAndList(t *testing.T) {
	s := newTestStore(t)

	row, err := s.Create(context.Background(), sampleConfig())
	require.NoError(t, err)

	rows, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, s.Delete(context.Background(), row.ID))
	require.ErrorIs(t, s.Delete(context.Background(), row.ID), apperrors.ErrConnectionNotFound)

	rows, err = s.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestStoreUpdateStatusStampsConnectedAt(t *testing.T) {
	s := newTestStore(t)

	row, err := s.Create(context.Background(), sampleConfig())
	require.NoError(t, err)

	require.NoError(t, s.UpdateStatus(context.Background(), row.ID, StatusConnected))

	updated, err := s.getRow(context.Background(), row.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConnected, updated.Status)
	require.NotNil(t, updated.LastConnectedAt)
}

func TestStoreRejectsBadKey(t *testing.T) {
	db := testutil.MustOpenTestDB(t, AutoMigrate)
	_, err := NewStore(db, []byte("short"))
	require.Error(t, err)
}

func TestBridgeHandlersLifecycle(t *testing.T) {
	s := newTestStore(t)
	d := bridge.NewDispatcher()
	require.NoError(t, RegisterHandlers(d, s))

	raw, err := d.Invoke(context.Background(), bridge.CommandCreateConnection, configArgs{Config: *sampleConfig()})
	require.NoError(t, err)
	require.Contains(t, string(raw), "connectionId")

	var created struct {
		ConnectionID string `json:"connectionId"`
	}
	require.NoError(t, json.Unmarshal(raw, &created))

	raw, err = d.Invoke(context.Background(), bridge.CommandGetConnectionStatus, bridge.ConnectionArgs{ConnectionID: created.ConnectionID})
	require.NoError(t, err)
	require.Contains(t, string(raw), StatusDisconnected)

	_, err = d.Invoke(context.Background(), bridge.CommandDeleteConnection, bridge.ConnectionArgs{ConnectionID: created.ConnectionID})
	require.NoError(t, err)

	_, err = d.Invoke(context.Background(), bridge.CommandGetConnectionStatus, bridge.ConnectionArgs{ConnectionID: created.ConnectionID})
	require.Error(t, err)
}

func TestDialTestAgainstLocalListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	result := dialTest(&connectors.ConnectionConfig{Host: "127.0.0.1", Port: port})
	require.True(t, result.Success)

	result = dialTest(&connectors.ConnectionConfig{})
	require.False(t, result.Success)
}
