package mount

import (
	"math"
	"sync"
	"time"
)

// SimulatorConfig tunes the simulated mount. Zero values take defaults
// suitable for interactive use; tests shrink the durations.
type SimulatorConfig struct {
	// SlewDuration is how long the mount reports Slewing after any motion
	// command. Defaults to 2s.
	SlewDuration time.Duration
	// HomeDuration is how long a homing run blocks. Defaults to 1s.
	HomeDuration time.Duration
	// MinAlt and MaxAlt are the mechanical altitude limits in radians.
	// Defaults: 0 and 85 degrees.
	MinAlt float64
	MaxAlt float64
}

// Simulator implements Channel in memory. Motion commands move the axes
// immediately and report Slewing for a fixed window, which is enough for the
// supervisor's completion polling.
type Simulator struct {
	cfg SimulatorConfig

	mu        sync.Mutex
	connected bool
	tracking  bool
	slewEnd   time.Time
	ra, dec   float64
	alt, az   float64
	failures  map[string]error
}

func NewSimulator(cfg SimulatorConfig) *Simulator {
	if cfg.SlewDuration == 0 {
		cfg.SlewDuration = 2 * time.Second
	}
	if cfg.HomeDuration == 0 {
		cfg.HomeDuration = time.Second
	}
	if cfg.MaxAlt == 0 {
		cfg.MaxAlt = 85 * math.Pi / 180
	}
	return &Simulator{cfg: cfg, failures: make(map[string]error)}
}

// FailNext injects an error for the next call of the named operation:
// "connect", "home", "track", "slew", "jog", "abort" or "status".
func (s *Simulator) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Simulator) takeFailure(op string) error {
	err := s.failures[op]
	delete(s.failures, op)
	return err
}

func (s *Simulator) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("connect"); err != nil {
		return err
	}
	s.connected = true
	return nil
}

func (s *Simulator) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.tracking = false
	return nil
}

func (s *Simulator) FindHome() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return &Fault{Kind: FaultNotConnected, Msg: "not connected"}
	}
	if err := s.takeFailure("home"); err != nil {
		s.mu.Unlock()
		return err
	}
	d := s.cfg.HomeDuration
	s.mu.Unlock()
	time.Sleep(d)
	s.mu.Lock()
	s.alt = math.Pi / 4
	s.az = 0
	s.ra = 0
	s.dec = 0
	s.mu.Unlock()
	return nil
}

func (s *Simulator) SetTracking(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return &Fault{Kind: FaultNotConnected, Msg: "not connected"}
	}
	if err := s.takeFailure("track"); err != nil {
		return err
	}
	s.tracking = enabled
	return nil
}

func (s *Simulator) SlewToEquatorial(ra, dec float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return &Fault{Kind: FaultNotConnected, Msg: "not connected"}
	}
	if err := s.takeFailure("slew"); err != nil {
		return err
	}
	if math.Abs(dec) > math.Pi/2 {
		return &Fault{Kind: FaultOutsideLimits, Msg: "target outside mechanical limits"}
	}
	s.ra = math.Mod(ra+2*math.Pi, 2*math.Pi)
	s.dec = dec
	s.slewEnd = time.Now().Add(s.cfg.SlewDuration)
	return nil
}

func (s *Simulator) SlewToHorizontal(alt, az float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return &Fault{Kind: FaultNotConnected, Msg: "not connected"}
	}
	if err := s.takeFailure("slew"); err != nil {
		return err
	}
	if alt < s.cfg.MinAlt || alt > s.cfg.MaxAlt {
		return &Fault{Kind: FaultOutsideLimits, Msg: "target outside mechanical limits"}
	}
	s.alt = alt
	s.az = math.Mod(az+2*math.Pi, 2*math.Pi)
	s.slewEnd = time.Now().Add(s.cfg.SlewDuration)
	return nil
}

func (s *Simulator) Jog(axis Axis, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return &Fault{Kind: FaultNotConnected, Msg: "not connected"}
	}
	if err := s.takeFailure("jog"); err != nil {
		return err
	}
	switch axis {
	case AxisRA:
		s.ra = math.Mod(s.ra+delta+2*math.Pi, 2*math.Pi)
	case AxisDec:
		if math.Abs(s.dec+delta) > math.Pi/2 {
			return &Fault{Kind: FaultOutsideLimits, Msg: "target outside mechanical limits"}
		}
		s.dec += delta
	case AxisAlt:
		if s.alt+delta < s.cfg.MinAlt || s.alt+delta > s.cfg.MaxAlt {
			return &Fault{Kind: FaultOutsideLimits, Msg: "target outside mechanical limits"}
		}
		s.alt += delta
	case AxisAz:
		s.az = math.Mod(s.az+delta+2*math.Pi, 2*math.Pi)
	}
	s.slewEnd = time.Now().Add(s.cfg.SlewDuration)
	return nil
}

func (s *Simulator) AbortSlew() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return &Fault{Kind: FaultNotConnected, Msg: "not connected"}
	}
	if err := s.takeFailure("abort"); err != nil {
		return err
	}
	s.slewEnd = time.Now()
	return nil
}

func (s *Simulator) Status() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return Status{}, &Fault{Kind: FaultNotConnected, Msg: "not connected"}
	}
	if err := s.takeFailure("status"); err != nil {
		return Status{}, err
	}
	return Status{
		Tracking: s.tracking,
		Slewing:  time.Now().Before(s.slewEnd),
		RA:       s.ra,
		Dec:      s.dec,
		Alt:      s.alt,
		Az:       s.az,
	}, nil
}
