package connectors

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFactorySingletonIdentity(t *testing.T) {
	ResetConnectorFactory()
	t.Cleanup(ResetConnectorFactory)

	a := GetConnectorFactory()
	b := GetConnectorFactory()
	require.Same(t, a, b)
}

func TestFactoryRegistersBuiltins(t *testing.T) {
	ResetConnectorFactory()
	t.Cleanup(ResetConnectorFactory)

	f := GetConnectorFactory()
	require.Equal(t, []string{TypeInfluxDB, TypeIoTDB, TypeObjectStorage}, f.Types())
	require.True(t, f.Has(TypeInfluxDB))
	require.Len(t, f.GetAll(), 3)
}

func TestFactoryGetUnknownReturnsNil(t *testing.T) {
	ResetConnectorFactory()
	t.Cleanup(ResetConnectorFactory)

	f := GetConnectorFactory()
	require.Nil(t, f.Get("prometheus"))
}

func TestFactoryRegisterReplacesSilently(t *testing.T) {
	ResetConnectorFactory()
	t.Cleanup(ResetConnectorFactory)

	f := GetConnectorFactory()
	replacement := NewInfluxDBConnector(&stubInvoker{payload: TestResult{Success: true}})
	f.Register(replacement)

	require.Len(t, f.Types(), 3)
	require.Same(t, Connector(replacement), f.Get(TypeInfluxDB))
}

func TestFactoryReloadRestoresBuiltins(t *testing.T) {
	ResetConnectorFactory()
	t.Cleanup(ResetConnectorFactory)

	f := GetConnectorFactory()
	f.Clear()
	require.Empty(t, f.Types())

	f.Reload()
	require.Equal(t, []string{TypeInfluxDB, TypeIoTDB, TypeObjectStorage}, f.Types())
}

func TestFactoryCreateReturnsFreshInstances(t *testing.T) {
	ResetConnectorFactory()
	t.Cleanup(ResetConnectorFactory)

	f := GetConnectorFactory()
	created := f.Create(TypeIoTDB)
	require.NotNil(t, created)
	require.NotSame(t, f.Get(TypeIoTDB), created)
	require.Nil(t, f.Create("unknown"))
}
