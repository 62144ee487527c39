package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

// resetViper clears all viper state between tests to avoid cross-contamination.
func resetViper() {
	viper.Reset()
}

func TestLoad_Defaults(t *testing.T) {
	resetViper()

	cfg := Load()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"HoursPerDay", cfg.HoursPerDay, 8},
		{"BufferDays", cfg.BufferDays, 1},
		{"DefaultEstimateMins", cfg.DefaultEstimateMins, 60},
		{"DBPath", cfg.DBPath, ".waypoint/waypoint.db"},
		{"Strict", cfg.Strict, false},
		{"Verbose", cfg.Verbose, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	resetViper()

	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{
			name:   "hours_per_day",
			envKey: "WAYPOINT_HOURS_PER_DAY",
			envVal: "6",
			field:  func(c Config) any { return c.HoursPerDay },
			want:   6,
		},
		{
			name:   "buffer_days",
			envKey: "WAYPOINT_BUFFER_DAYS",
			envVal: "0",
			field:  func(c Config) any { return c.BufferDays },
			want:   0,
		},
		{
			name:   "default_estimate_mins",
			envKey: "WAYPOINT_DEFAULT_ESTIMATE_MINS",
			envVal: "30",
			field:  func(c Config) any { return c.DefaultEstimateMins },
			want:   30,
		},
		{
			name:   "db_path",
			envKey: "WAYPOINT_DB_PATH",
			envVal: "/tmp/plans.db",
			field:  func(c Config) any { return c.DBPath },
			want:   "/tmp/plans.db",
		},
		{
			name:   "strict",
			envKey: "WAYPOINT_STRICT",
			envVal: "true",
			field:  func(c Config) any { return c.Strict },
			want:   true,
		},
		{
			name:   "verbose",
			envKey: "WAYPOINT_VERBOSE",
			envVal: "true",
			field:  func(c Config) any { return c.Verbose },
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper()
			// Set env prefix so WAYPOINT_* env vars map to config keys.
			viper.SetEnvPrefix("WAYPOINT")
			viper.AutomaticEnv()

			os.Setenv(tt.envKey, tt.envVal)
			defer os.Unsetenv(tt.envKey)

			cfg := Load()
			got := tt.field(cfg)
			if got != tt.want {
				t.Errorf("%s: got %v (%T), want %v (%T)", tt.name, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestLoad_DefaultsAreNotZero(t *testing.T) {
	resetViper()

	cfg := Load()

	if cfg.HoursPerDay == 0 {
		t.Error("HoursPerDay should not be zero")
	}
	if cfg.BufferDays == 0 {
		t.Error("BufferDays should not be zero")
	}
	if cfg.DefaultEstimateMins == 0 {
		t.Error("DefaultEstimateMins should not be zero")
	}
	if cfg.DBPath == "" {
		t.Error("DBPath should not be empty")
	}
}
