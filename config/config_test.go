package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9002", cfg.Daemon.HTTPAddr)
	assert.Equal(t, 500, cfg.Daemon.TickIntervalMillis)
	assert.Equal(t, 115200, cfg.Mount.Baud)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teld.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"daemon": {"http_addr": "0.0.0.0:8000", "listen_addr": "0.0.0.0:8001",
		           "tick_interval_millis": 250, "sequence_timeout_sec": 60},
		"mount": {"port": "/dev/ttyUSB0", "baud": 9600,
		          "read_timeout_sec": 2, "home_timeout_sec": 120,
		          "min_altitude": 5, "max_altitude": 80},
		"site": {"latitude": 52.376861, "longitude": -1.583861, "elevation": 94}
	}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8000", cfg.Daemon.HTTPAddr)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Mount.Port)
	assert.Equal(t, 250, cfg.Daemon.TickIntervalMillis)

	site := cfg.AstrometrySite()
	assert.InDelta(t, 52.376861*math.Pi/180, site.Latitude, 1e-12)
	assert.InDelta(t, 94.0, site.Elevation, 0)

	sup := cfg.SupervisorConfig()
	assert.Equal(t, int64(250), sup.TickInterval.Milliseconds())
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teld.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("TELD_HTTP_ADDR", "10.0.0.5:9100")
	t.Setenv("TELD_MOUNT_PORT", "/dev/ttyACM3")
	t.Setenv("TELD_POWER_PORT", "/dev/ttyACM4")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:9100", cfg.Daemon.HTTPAddr)
	assert.Equal(t, "/dev/ttyACM3", cfg.Mount.Port)
	assert.True(t, cfg.Power.Enabled)
	assert.Equal(t, "/dev/ttyACM4", cfg.Power.Port)
}

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tick", func(c *Config) { c.Daemon.TickIntervalMillis = 0 }},
		{"bad latitude", func(c *Config) { c.Site.Latitude = 120 }},
		{"empty altitude range", func(c *Config) { c.Mount.MinAltitude = 85; c.Mount.MaxAltitude = 85 }},
		{"power without port", func(c *Config) { c.Power.Enabled = true; c.Power.Port = "" }},
	} {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}
