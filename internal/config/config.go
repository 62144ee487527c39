package config

import "github.com/spf13/viper"

// Config holds all runtime configuration for a waypoint session.
// Values are populated from .waypoint.yaml, WAYPOINT_* env vars, and CLI flags.
type Config struct {
	HoursPerDay         int    `mapstructure:"hours_per_day"`
	BufferDays          int    `mapstructure:"buffer_days"`
	DefaultEstimateMins int    `mapstructure:"default_estimate_mins"`
	DBPath              string `mapstructure:"db_path"`
	Strict              bool   `mapstructure:"strict"`
	Verbose             bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() Config {
	viper.SetDefault("hours_per_day", 8)
	viper.SetDefault("buffer_days", 1)
	viper.SetDefault("default_estimate_mins", 60)
	viper.SetDefault("db_path", ".waypoint/waypoint.db")
	viper.SetDefault("strict", false)
	viper.SetDefault("verbose", false)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
