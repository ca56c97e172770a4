package connectors

// Backend type identifiers used as registry keys and persisted discriminants.
const (
	TypeInfluxDB      = "influxdb"
	TypeIoTDB         = "iotdb"
	TypeObjectStorage = "object-storage"
)

// Timeout bounds in seconds shared by every connector.
const (
	MinTimeout           = 5
	MaxTimeout           = 300
	MinConnectionTimeout = 5
	MaxConnectionTimeout = 300
	MinQueryTimeout      = 10
	MaxQueryTimeout      = 3600
)

// InfluxV2Config holds the InfluxDB 2.x specific connection settings.
type InfluxV2Config struct {
	Organization string `json:"organization,omitempty"`
	Bucket       string `json:"bucket,omitempty"`
	APIToken     string `json:"apiToken,omitempty"`
}

// ConnectionConfig is the normalized, backend-agnostic persistence shape for a
// connection. Provider-specific fields live in the family-keyed DriverConfig
// bag; backend-specific scalars (Version, RetentionPolicy, V2Config) sit at
// the top level for the InfluxDB family. The schema is additive: unknown or
// absent fields must default safely when rehydrated.
type ConnectionConfig struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DBType      string `json:"dbType"`

	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Database string `json:"database,omitempty"`
	SSL      bool   `json:"ssl,omitempty"`

	// Timeouts in seconds. Data only: enforcement belongs to the backend.
	Timeout           int `json:"timeout,omitempty"`
	ConnectionTimeout int `json:"connectionTimeout,omitempty"`
	QueryTimeout      int `json:"queryTimeout,omitempty"`

	Version         string          `json:"version,omitempty"`
	RetentionPolicy string          `json:"retentionPolicy,omitempty"`
	V2Config        *InfluxV2Config `json:"v2Config,omitempty"`

	DriverConfig map[string]map[string]any `json:"driverConfig,omitempty"`
}

// Driver returns the named driver bag, creating it on first use.
func (c *ConnectionConfig) Driver(family string) map[string]any {
	if c.DriverConfig == nil {
		c.DriverConfig = make(map[string]map[string]any)
	}
	bag, ok := c.DriverConfig[family]
	if !ok {
		bag = make(map[string]any)
		c.DriverConfig[family] = bag
	}
	return bag
}

// DriverValue reads a single value out of a driver bag without allocating it.
func (c *ConnectionConfig) DriverValue(family, key string) (any, bool) {
	if c == nil || c.DriverConfig == nil {
		return nil, false
	}
	bag, ok := c.DriverConfig[family]
	if !ok {
		return nil, false
	}
	value, ok := bag[key]
	return value, ok
}

// TestResult reports the outcome of a connection test. Latency is measured by
// the caller around the bridge round trip, in milliseconds, and is zero for
// failed attempts.
type TestResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Latency int64  `json:"latency"`
}
