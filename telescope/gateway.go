package telescope

import "time"

// Command gateway. Every top-level command try-locks cmdMu and returns
// ResultBlocked when another command is in flight; clients retry rather than
// queue. Stop is the exception: it must always get through.

// Initialize powers the mount up: connect, home, tracking off. Blocks until
// the sequence resolves or the sequence timeout expires.
func (s *Supervisor) Initialize() Result {
	if !s.cmdMu.TryLock() {
		return ResultBlocked
	}
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	if s.state != StateDisabled {
		s.mu.Unlock()
		return ResultNotDisabled
	}
	s.requestedActive = true
	res := s.waitSequenceLocked()
	s.mu.Unlock()
	s.Metrics.Command("initialize", res.String())
	return res
}

// Shutdown powers the mount down. Blocks until the sequence resolves or the
// sequence timeout expires.
func (s *Supervisor) Shutdown() Result {
	if !s.cmdMu.TryLock() {
		return ResultBlocked
	}
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	switch s.state {
	case StateDisabled:
		s.mu.Unlock()
		return ResultNotEnabled
	case StateInitializing:
		s.mu.Unlock()
		return ResultInitializing
	}
	s.requestedActive = false
	res := s.waitSequenceLocked()
	s.mu.Unlock()
	s.Metrics.Command("shutdown", res.String())
	return res
}

// waitSequenceLocked blocks until the loop finishes the next init or
// shutdown sequence, bounded by the sequence timeout. If the timeout fires
// first the caller gets whatever result the previous sequence left behind;
// the loop may still be mid-sequence. Callers hold mu.
func (s *Supervisor) waitSequenceLocked() Result {
	gen := s.seqGen
	deadline := time.Now().Add(s.cfg.SequenceTimeout)
	timer := time.AfterFunc(s.cfg.SequenceTimeout, func() {
		s.mu.Lock()
		s.seqCond.Broadcast()
		s.mu.Unlock()
	})
	defer timer.Stop()
	for s.seqGen == gen && time.Now().Before(deadline) {
		s.seqCond.Wait()
	}
	return s.seqResult
}

// Stop aborts any motion and disables tracking. It bypasses the command
// lock: the abort path must never be blocked by a hung command. The abort
// itself happens on the loop's next tick.
func (s *Supervisor) Stop() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state < StateInitializing {
		return ResultNotEnabled
	}
	s.requestedStop = true
	s.requestedTracking = false
	s.Metrics.Command("stop", ResultSucceeded.String())
	return ResultSucceeded
}

// motion posts a slew request and blocks until the loop clears it, which is
// the sole resolution signal. There is no upper bound on the wait: slews
// take as long as they take.
func (s *Supervisor) motion(name string, req *slewRequest, track *bool) Result {
	if !s.cmdMu.TryLock() {
		return ResultBlocked
	}
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	if s.state < StateStopped {
		s.mu.Unlock()
		return ResultNotEnabled
	}
	if track != nil {
		req.restoreTracking = true
		req.prevTracking = s.requestedTracking
		s.requestedTracking = *track
	}
	s.slew = req
	for s.slew == req {
		s.slewCond.Wait()
	}
	s.mu.Unlock()

	res := req.result()
	s.Metrics.Command(name, res.String())
	return res
}

// SlewAltAz slews to a fixed horizontal pointing with tracking off.
func (s *Supervisor) SlewAltAz(alt, az float64) Result {
	track := false
	return s.motion("slew_altaz", &slewRequest{kind: slewHorizontal, a: alt, b: az}, &track)
}

// TrackAltAz slews to a horizontal pointing and enables tracking.
func (s *Supervisor) TrackAltAz(alt, az float64) Result {
	track := true
	return s.motion("track_altaz", &slewRequest{kind: slewHorizontal, a: alt, b: az}, &track)
}

// SlewRaDec slews to catalog equatorial coordinates with tracking off.
func (s *Supervisor) SlewRaDec(ra, dec float64) Result {
	track := false
	return s.motion("slew_radec", &slewRequest{kind: slewEquatorial, a: ra, b: dec}, &track)
}

// TrackRaDec slews to catalog equatorial coordinates and enables tracking.
func (s *Supervisor) TrackRaDec(ra, dec float64) Result {
	track := true
	return s.motion("track_radec", &slewRequest{kind: slewEquatorial, a: ra, b: dec}, &track)
}

// OffsetRaDec nudges the pointing by the given deltas, one axis at a time.
// Tracking state is left alone.
func (s *Supervisor) OffsetRaDec(dra, ddec float64) Result {
	return s.motion("offset_radec", &slewRequest{kind: offsetEquatorialPhase1, a: dra, b: ddec}, nil)
}

// OffsetAltAz nudges the horizontal pointing by the given deltas.
func (s *Supervisor) OffsetAltAz(dalt, daz float64) Result {
	return s.motion("offset_altaz", &slewRequest{kind: offsetHorizontalPhase1, a: dalt, b: daz}, nil)
}

// Ping reports liveness.
func (s *Supervisor) Ping() Result {
	return ResultSucceeded
}
