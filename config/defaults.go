package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Storage defaults
	v.SetDefault("storage.base_dir", "stores")
	v.SetDefault("storage.discovery", false)

	// Networked store defaults
	v.SetDefault("network.host", "localhost")
	v.SetDefault("network.port", 3306)
	v.SetDefault("network.user", "burrow")

	// Pool defaults
	v.SetDefault("pool.opens_per_second", 0.0) // 0 = unlimited
	v.SetDefault("pool.open_burst", 8)

	// Federation defaults
	v.SetDefault("federation.max_secondaries", 8)

	// Log defaults
	v.SetDefault("log.json", false)
}

// newDefaultViper returns a Viper instance carrying only the defaults
func newDefaultViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("network.password", "BURROW_NETWORK_PASSWORD")
	v.BindEnv("storage.base_dir", "BURROW_STORAGE_BASE_DIR")
}

// MaxSecondaries returns the federation attach cap with the default applied
func (c *Config) MaxSecondaries() int {
	if c.Federation.MaxSecondaries <= 0 {
		return 8
	}
	return c.Federation.MaxSecondaries
}

// OpenBurst returns the pool limiter burst with the default applied
func (c *Config) OpenBurst() int {
	if c.Pool.OpenBurst <= 0 {
		return 8
	}
	return c.Pool.OpenBurst
}
