// Package config loads the daemon configuration from a JSON file with
// environment variable overrides for deployment-specific values.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/warwick-one-metre/rasa-teld/astrometry"
	"github.com/warwick-one-metre/rasa-teld/mount"
	"github.com/warwick-one-metre/rasa-teld/telescope"
)

// Config is the complete daemon configuration. Angles in config files are
// degrees; the daemon converts to radians at the boundary.
type Config struct {
	Daemon DaemonConfig `json:"daemon"`
	Mount  MountConfig  `json:"mount"`
	Site   SiteConfig   `json:"site"`
	Power  PowerConfig  `json:"power"`
}

// DaemonConfig covers the network surfaces and control loop timing.
type DaemonConfig struct {
	// HTTPAddr serves the JSON status/command API, the websocket feed and
	// /metrics.
	HTTPAddr string `json:"http_addr"`

	// ListenAddr serves the plain-text TCP command interface.
	ListenAddr string `json:"listen_addr"`

	TickIntervalMillis int `json:"tick_interval_millis"`
	SequenceTimeoutSec int `json:"sequence_timeout_sec"`
}

// MountConfig describes the serial link to the mount controller.
type MountConfig struct {
	Port string `json:"port"`
	Baud int    `json:"baud"`

	ReadTimeoutSec int `json:"read_timeout_sec"`
	HomeTimeoutSec int `json:"home_timeout_sec"`

	// MinAltitude and MaxAltitude are the mechanical limits in degrees,
	// used by the simulator.
	MinAltitude float64 `json:"min_altitude"`
	MaxAltitude float64 `json:"max_altitude"`
}

// SiteConfig is the observing location in degrees and metres.
type SiteConfig struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
}

// PowerConfig describes the optional modbus power distribution unit.
type PowerConfig struct {
	Enabled bool   `json:"enabled"`
	Port    string `json:"port"`
	Baud    int    `json:"baud"`
	SlaveID byte   `json:"slave_id"`
}

// Default returns the configuration for the production deployment.
func Default() *Config {
	return &Config{
		Daemon: DaemonConfig{
			HTTPAddr:           "127.0.0.1:9002",
			ListenAddr:         "127.0.0.1:9003",
			TickIntervalMillis: 500,
			SequenceTimeoutSec: 30,
		},
		Mount: MountConfig{
			Port:           "/dev/mount",
			Baud:           115200,
			ReadTimeoutSec: 2,
			HomeTimeoutSec: 120,
			MinAltitude:    0,
			MaxAltitude:    85,
		},
		Site: SiteConfig{
			Latitude:  28.7603135,
			Longitude: -17.8796168,
			Elevation: 2387,
		},
		Power: PowerConfig{
			Baud:    9600,
			SlaveID: 1,
		},
	}
}

// Load reads a JSON config file and applies environment overrides. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	cfg.applyEnvironment()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvironment() {
	if v := os.Getenv("TELD_HTTP_ADDR"); v != "" {
		c.Daemon.HTTPAddr = v
	}
	if v := os.Getenv("TELD_LISTEN_ADDR"); v != "" {
		c.Daemon.ListenAddr = v
	}
	if v := os.Getenv("TELD_MOUNT_PORT"); v != "" {
		c.Mount.Port = v
	}
	if v := os.Getenv("TELD_POWER_PORT"); v != "" {
		c.Power.Port = v
		c.Power.Enabled = true
	}
	if v := os.Getenv("TELD_TICK_INTERVAL_MILLIS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Daemon.TickIntervalMillis = n
		}
	}
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Daemon.TickIntervalMillis <= 0 {
		return fmt.Errorf("tick_interval_millis must be positive, got %d", c.Daemon.TickIntervalMillis)
	}
	if c.Daemon.SequenceTimeoutSec <= 0 {
		return fmt.Errorf("sequence_timeout_sec must be positive, got %d", c.Daemon.SequenceTimeoutSec)
	}
	if c.Site.Latitude < -90 || c.Site.Latitude > 90 {
		return fmt.Errorf("site latitude %v out of range", c.Site.Latitude)
	}
	if c.Site.Longitude < -180 || c.Site.Longitude > 180 {
		return fmt.Errorf("site longitude %v out of range", c.Site.Longitude)
	}
	if c.Mount.MinAltitude >= c.Mount.MaxAltitude {
		return fmt.Errorf("altitude limits %v..%v are empty", c.Mount.MinAltitude, c.Mount.MaxAltitude)
	}
	if c.Power.Enabled && c.Power.Port == "" {
		return fmt.Errorf("power monitoring enabled without a port")
	}
	return nil
}

// AstrometrySite converts the site block to radians.
func (c *Config) AstrometrySite() astrometry.Site {
	return astrometry.Site{
		Latitude:  c.Site.Latitude * math.Pi / 180,
		Longitude: c.Site.Longitude * math.Pi / 180,
		Elevation: c.Site.Elevation,
	}
}

// SupervisorConfig builds the telescope supervisor tunables.
func (c *Config) SupervisorConfig() telescope.Config {
	return telescope.Config{
		Site:            c.AstrometrySite(),
		TickInterval:    time.Duration(c.Daemon.TickIntervalMillis) * time.Millisecond,
		SequenceTimeout: time.Duration(c.Daemon.SequenceTimeoutSec) * time.Second,
	}
}

// SerialConfig builds the mount serial channel settings.
func (c *Config) SerialConfig() mount.SerialConfig {
	return mount.SerialConfig{
		Port:        c.Mount.Port,
		Baud:        c.Mount.Baud,
		ReadTimeout: time.Duration(c.Mount.ReadTimeoutSec) * time.Second,
		HomeTimeout: time.Duration(c.Mount.HomeTimeoutSec) * time.Second,
	}
}

// SimulatorConfig builds the in-memory mount settings used with -simulate.
func (c *Config) SimulatorConfig() mount.SimulatorConfig {
	return mount.SimulatorConfig{
		MinAlt: c.Mount.MinAltitude * math.Pi / 180,
		MaxAlt: c.Mount.MaxAltitude * math.Pi / 180,
	}
}
