// Package config loads Burrow configuration via Viper.
//
// Precedence (lowest to highest): defaults < /etc/burrow/config.toml <
// ~/.burrow/config.toml < project burrow.toml < BURROW_* env vars.
package config

// Config represents the core Burrow configuration
type Config struct {
	Storage    StorageConfig    `mapstructure:"storage" toml:"storage"`
	Network    NetworkConfig    `mapstructure:"network" toml:"network"`
	Pool       PoolConfig       `mapstructure:"pool" toml:"pool"`
	Federation FederationConfig `mapstructure:"federation" toml:"federation"`
	Log        LogConfig        `mapstructure:"log" toml:"log"`
}

// StorageConfig configures embedded per-tenant SQLite stores
type StorageConfig struct {
	// BaseDir is the directory holding one tenant-<id>.db file per tenant
	BaseDir string `mapstructure:"base_dir" toml:"base_dir"`
	// Discovery enables fsnotify-based auto-registration of store files
	Discovery bool `mapstructure:"discovery" toml:"discovery"`
}

// NetworkConfig configures networked (MySQL) tenant stores.
// Each networked tenant maps to database tenant_<id> on this endpoint.
type NetworkConfig struct {
	Host     string `mapstructure:"host" toml:"host"`
	Port     int    `mapstructure:"port" toml:"port"`
	User     string `mapstructure:"user" toml:"user"`
	Password string `mapstructure:"password" toml:"password"` // env only: BURROW_NETWORK_PASSWORD
}

// PoolConfig configures the connection pool manager
type PoolConfig struct {
	// OpensPerSecond rate-limits store opens to damp reconnect storms.
	// 0 disables the limiter.
	OpensPerSecond float64 `mapstructure:"opens_per_second" toml:"opens_per_second"`
	// OpenBurst is the limiter burst size (default: 8)
	OpenBurst int `mapstructure:"open_burst" toml:"open_burst"`
}

// FederationConfig configures cross-tenant federated queries
type FederationConfig struct {
	// MaxSecondaries caps how many stores one call may attach (default: 8)
	MaxSecondaries int `mapstructure:"max_secondaries" toml:"max_secondaries"`
}

// LogConfig configures log output
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json"`
}
