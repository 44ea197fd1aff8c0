// Package telescope implements the mount supervisor: a single control loop
// that owns the hardware channel, and a command gateway that client
// goroutines call concurrently.
//
// The channel's automation contract is single-owner, so the loop goroutine
// is the only caller of it. Clients communicate with the loop through intent
// fields under a small mutex and block on condition variables until the loop
// resolves their request. No lock is ever held across a hardware call.
package telescope

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/warwick-one-metre/rasa-teld/astrometry"
	"github.com/warwick-one-metre/rasa-teld/internal/metrics"
	"github.com/warwick-one-metre/rasa-teld/mount"
)

// Config carries the supervisor's tunables.
type Config struct {
	Site astrometry.Site

	// TickInterval is the control loop period. Defaults to 500ms.
	TickInterval time.Duration

	// SequenceTimeout bounds how long Initialize and Shutdown callers wait
	// for their sequence to finish. Defaults to 30s.
	SequenceTimeout time.Duration
}

// StatusCallback is invoked after every tick with a fresh status report.
type StatusCallback func(Status)

// Supervisor owns the canonical telescope state and the hardware channel.
type Supervisor struct {
	ch  mount.Channel
	cfg Config

	// StatusCallback and Metrics must be set before Run, if at all.
	StatusCallback StatusCallback
	Metrics        *metrics.Collector

	// cmdMu serializes top-level commands. It is only ever try-locked: a
	// held lock maps to ResultBlocked. Stop bypasses it so an abort is
	// never stuck behind a hung command.
	cmdMu sync.Mutex

	// mu guards the fields below. slewCond signals slew request resolution,
	// seqCond signals init/shutdown sequence resolution; both share mu.
	mu       sync.Mutex
	slewCond *sync.Cond
	seqCond  *sync.Cond

	state             State
	requestedActive   bool
	requestedTracking bool
	requestedStop     bool
	slew              *slewRequest

	// seqGen counts finished init/shutdown sequences so waiters can tell a
	// fresh seqResult from a stale one.
	seqGen    uint64
	seqResult Result

	// connected is touched only by the loop goroutine.
	connected bool

	// The position cache has its own lock so status reads never block
	// behind a command.
	posMu    sync.Mutex
	pos      PositionSnapshot
	posValid bool
}

func NewSupervisor(ch mount.Channel, cfg Config) *Supervisor {
	if cfg.TickInterval == 0 {
		cfg.TickInterval = 500 * time.Millisecond
	}
	if cfg.SequenceTimeout == 0 {
		cfg.SequenceTimeout = 30 * time.Second
	}
	s := &Supervisor{ch: ch, cfg: cfg}
	s.slewCond = sync.NewCond(&s.mu)
	s.seqCond = sync.NewCond(&s.mu)
	return s
}

// Run drives the control loop until ctx is cancelled, then shuts the mount
// down. Run's goroutine is the only one that ever calls the hardware
// channel.
func (s *Supervisor) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	for {
		start := time.Now()
		s.tick()
		s.Metrics.ObserveTick(time.Since(start))

		status := s.Status()
		s.Metrics.SetState(int(status.State))
		if cb := s.StatusCallback; cb != nil {
			cb(status)
		}

		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.requestedActive = false
			disabled := s.state == StateDisabled
			s.mu.Unlock()
			if !disabled {
				s.shutdownSequence()
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// tick runs one iteration of the control loop. The step order matters:
// sequences first, then the abort path, then slew completion, the tracking
// heartbeat, request dispatch and finally the position refresh.
func (s *Supervisor) tick() {
	s.mu.Lock()
	state, active := s.state, s.requestedActive
	s.mu.Unlock()

	if state == StateDisabled && active {
		s.initializeSequence()
	} else if state != StateDisabled && !active {
		s.shutdownSequence()
	}

	s.mu.Lock()
	if s.state == StateDisabled {
		// A request that slipped in while the shutdown sequence was mid-way
		// can never be served; resolve it so its caller is not stranded.
		if s.slew != nil {
			s.slew.aborted = true
			s.finishSlewLocked()
		}
		s.mu.Unlock()
		return
	}
	stop := s.requestedStop
	s.mu.Unlock()

	if stop {
		err := s.ch.AbortSlew()
		s.mu.Lock()
		if s.slew != nil {
			s.slew.aborted = true
			s.finishSlewLocked()
		}
		s.requestedStop = false
		s.mu.Unlock()
		if err != nil {
			s.deactivate("abort", err)
			return
		}
	}

	s.mu.Lock()
	slewing := s.state == StateSlewing
	s.mu.Unlock()
	if slewing {
		st, err := s.ch.Status()
		if err != nil {
			s.deactivate("status", err)
			return
		}
		if !st.Slewing {
			s.mu.Lock()
			if st.Tracking {
				s.state = StateTracking
			} else {
				s.state = StateStopped
			}
			if s.slew != nil && s.slew.dispatched && s.slew.kind.absolute() {
				s.finishSlewLocked()
			}
			s.mu.Unlock()
		}
	}

	// Heartbeat: re-assert tracking every tick whether or not it changed,
	// so a dead channel surfaces even when no command is pending.
	s.mu.Lock()
	tracking := s.requestedTracking
	s.mu.Unlock()
	if err := s.ch.SetTracking(tracking); err != nil {
		s.deactivate("tracking heartbeat", err)
		return
	}

	s.mu.Lock()
	req := s.slew
	dispatch := s.state != StateSlewing && req != nil
	var prev State
	if dispatch {
		prev = s.state
		s.state = StateSlewing
		req.dispatched = true
		req.aborted = false
		req.outsideLimits = false
	}
	s.mu.Unlock()
	if dispatch {
		err := s.dispatchMotion(req)
		s.mu.Lock()
		switch {
		case err == nil:
			switch req.kind {
			case offsetHorizontalPhase1:
				req.kind = offsetHorizontalPhase2
			case offsetEquatorialPhase1:
				req.kind = offsetEquatorialPhase2
			case offsetHorizontalPhase2, offsetEquatorialPhase2:
				// Second jog is in flight; the request resolves now and the
				// slew-complete check returns the state to Stopped/Tracking.
				s.finishSlewLocked()
			}
			s.mu.Unlock()
		case mount.Classify(err) == mount.FaultOutsideLimits:
			req.outsideLimits = true
			if req.restoreTracking {
				// The rejected request must not leave its tracking intent
				// behind at the current pointing.
				s.requestedTracking = req.prevTracking
			}
			s.state = prev
			s.finishSlewLocked()
			s.mu.Unlock()
		default:
			s.state = prev
			s.mu.Unlock()
			s.deactivate("motion dispatch", err)
			return
		}
	}

	s.refreshPosition()
}

// dispatchMotion issues the single hardware call for a request's current
// phase.
func (s *Supervisor) dispatchMotion(req *slewRequest) error {
	switch req.kind {
	case slewHorizontal:
		return s.ch.SlewToHorizontal(req.a, req.b)
	case slewEquatorial:
		ra, dec := astrometry.ApparentFromCatalog(time.Now(), req.a, req.b)
		return s.ch.SlewToEquatorial(ra, dec)
	case offsetEquatorialPhase1:
		return s.ch.Jog(mount.AxisRA, req.a)
	case offsetEquatorialPhase2:
		return s.ch.Jog(mount.AxisDec, req.b)
	case offsetHorizontalPhase1:
		return s.ch.Jog(mount.AxisAlt, req.a)
	case offsetHorizontalPhase2:
		return s.ch.Jog(mount.AxisAz, req.b)
	}
	return fmt.Errorf("unknown slew kind %d", req.kind)
}

func (s *Supervisor) initializeSequence() {
	s.mu.Lock()
	s.state = StateInitializing
	s.mu.Unlock()

	err := func() error {
		if !s.connected {
			if err := s.ch.Connect(); err != nil {
				return err
			}
			s.connected = true
		}
		if err := s.ch.FindHome(); err != nil {
			return err
		}
		return s.ch.SetTracking(false)
	}()

	s.mu.Lock()
	if err != nil {
		s.state = StateDisabled
		s.requestedActive = false
		s.seqResult = resultForFault(err)
	} else {
		s.state = StateStopped
		s.requestedTracking = false
		s.requestedStop = false
		s.seqResult = ResultSucceeded
	}
	s.seqGen++
	s.seqCond.Broadcast()
	s.mu.Unlock()
	if err != nil {
		log.Printf("telescope: initialization failed: %v", err)
		s.Metrics.Fault(mount.Classify(err).String())
	}
}

func (s *Supervisor) shutdownSequence() {
	// A pending slew can never complete once the mount powers down.
	s.mu.Lock()
	if s.slew != nil {
		s.slew.aborted = true
		s.finishSlewLocked()
	}
	s.mu.Unlock()

	var err error
	if s.connected {
		if terr := s.ch.SetTracking(false); terr != nil {
			err = terr
		}
		if derr := s.ch.Disconnect(); derr != nil && err == nil {
			err = derr
		}
		s.connected = false
	}

	// Disabled unconditionally: shutdown must not get stuck on a failure.
	s.mu.Lock()
	s.state = StateDisabled
	s.requestedTracking = false
	s.requestedStop = false
	if err != nil {
		s.seqResult = resultForFault(err)
	} else {
		s.seqResult = ResultSucceeded
	}
	s.seqGen++
	s.seqCond.Broadcast()
	s.mu.Unlock()

	s.posMu.Lock()
	s.posValid = false
	s.posMu.Unlock()
	if err != nil {
		log.Printf("telescope: shutdown finished with error: %v", err)
	}
}

// deactivate handles a hardware failure in routine polling: log it and drop
// requestedActive so the next tick runs the shutdown sequence. The loop
// itself never dies on a channel fault.
func (s *Supervisor) deactivate(op string, err error) {
	log.Printf("telescope: %s failed, shutting down: %v", op, err)
	s.Metrics.Fault(mount.Classify(err).String())
	s.mu.Lock()
	s.requestedActive = false
	s.mu.Unlock()
}

// finishSlewLocked clears the pending request and wakes its waiter. The
// waiter still holds its own pointer and reads the terminal flags from it.
// Callers hold mu.
func (s *Supervisor) finishSlewLocked() {
	s.slew = nil
	s.slewCond.Broadcast()
}

func (s *Supervisor) refreshPosition() {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state <= StateInitializing {
		return
	}

	st, err := s.ch.Status()
	if err != nil {
		s.deactivate("position query", err)
		return
	}
	now := time.Now()
	ra, dec := astrometry.CatalogFromApparent(now, st.RA, st.Dec)

	s.posMu.Lock()
	s.pos = PositionSnapshot{RA: ra, Dec: dec, Alt: st.Alt, Az: st.Az, Tracking: st.Tracking, Time: now}
	s.posValid = true
	s.posMu.Unlock()

	if state != StateSlewing {
		s.mu.Lock()
		if st.Tracking {
			s.state = StateTracking
		} else {
			s.state = StateStopped
		}
		s.mu.Unlock()
	}
}

// Status assembles a status report from the canonical state and the cached
// pointing. The derived fields use the current clock with the last-polled
// position, so they are only as fresh as the tick interval.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	status := Status{State: state, StateLabel: state.String(), Time: time.Now().UTC()}
	if state <= StateInitializing {
		return status
	}

	s.posMu.Lock()
	pos, valid := s.pos, s.posValid
	s.posMu.Unlock()
	if !valid {
		return status
	}

	const radToDeg = 180 / math.Pi
	site := s.cfg.Site
	now := status.Time
	sunAlt, sunAz := astrometry.SunAltAz(site, now)
	moonAlt, moonAz := astrometry.MoonAltAz(site, now)
	status.Pointing = &Pointing{
		RA:             pos.RA * radToDeg,
		Dec:            pos.Dec * radToDeg,
		Alt:            pos.Alt * radToDeg,
		Az:             pos.Az * radToDeg,
		LST:            astrometry.LocalSiderealTime(site, now) * 12 / math.Pi,
		SunSeparation:  astrometry.Separation(pos.Az, pos.Alt, sunAz, sunAlt) * radToDeg,
		MoonSeparation: astrometry.Separation(pos.Az, pos.Alt, moonAz, moonAlt) * radToDeg,
		SiteLatitude:   site.Latitude * radToDeg,
		SiteLongitude:  site.Longitude * radToDeg,
		SiteElevation:  site.Elevation,
	}
	return status
}
