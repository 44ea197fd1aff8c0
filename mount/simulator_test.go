package mount

import (
	"errors"
	"math"
	"testing"
	"time"
)

func testSimulator(t *testing.T) *Simulator {
	t.Helper()
	s := NewSimulator(SimulatorConfig{
		SlewDuration: 5 * time.Millisecond,
		HomeDuration: time.Millisecond,
	})
	if err := s.Connect(); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSimulatorRequiresConnect(t *testing.T) {
	s := NewSimulator(SimulatorConfig{})
	if _, err := s.Status(); Classify(err) != FaultNotConnected {
		t.Errorf("Status before Connect = %v, want not_connected", err)
	}
	if err := s.SetTracking(true); Classify(err) != FaultNotConnected {
		t.Errorf("SetTracking before Connect = %v, want not_connected", err)
	}
}

func TestSimulatorSlewCompletes(t *testing.T) {
	s := testSimulator(t)
	if err := s.SlewToEquatorial(1.2, 0.3); err != nil {
		t.Fatal(err)
	}
	st, err := s.Status()
	if err != nil {
		t.Fatal(err)
	}
	if !st.Slewing {
		t.Error("expected Slewing immediately after slew command")
	}
	if st.RA != 1.2 || st.Dec != 0.3 {
		t.Errorf("position = (%v, %v), want (1.2, 0.3)", st.RA, st.Dec)
	}
	time.Sleep(10 * time.Millisecond)
	if st, _ = s.Status(); st.Slewing {
		t.Error("still Slewing after the slew window")
	}
}

func TestSimulatorAbort(t *testing.T) {
	s := testSimulator(t)
	if err := s.SlewToHorizontal(0.5, 1.0); err != nil {
		t.Fatal(err)
	}
	if err := s.AbortSlew(); err != nil {
		t.Fatal(err)
	}
	if st, _ := s.Status(); st.Slewing {
		t.Error("still Slewing after abort")
	}
}

func TestSimulatorLimits(t *testing.T) {
	s := testSimulator(t)
	for _, test := range []struct {
		name string
		err  error
	}{
		{"horizontal below limit", s.SlewToHorizontal(-0.1, 0)},
		{"horizontal above limit", s.SlewToHorizontal(math.Pi/2, 0)},
		{"dec beyond pole", s.SlewToEquatorial(0, 1.6)},
		{"alt jog below limit", s.Jog(AxisAlt, -1)},
	} {
		if Classify(test.err) != FaultOutsideLimits {
			t.Errorf("%s: got %v, want outside_limits", test.name, test.err)
		}
	}
	// Azimuth wraps instead of limiting.
	if err := s.Jog(AxisAz, 7); err != nil {
		t.Errorf("az jog: %v", err)
	}
	st, _ := s.Status()
	if st.Az < 0 || st.Az >= 2*math.Pi {
		t.Errorf("az %v not normalized", st.Az)
	}
}

func TestSimulatorFailNext(t *testing.T) {
	s := testSimulator(t)
	injected := &Fault{Kind: FaultTimeout, Msg: "no response"}
	s.FailNext("track", injected)
	if err := s.SetTracking(true); !errors.Is(err, injected) && err != injected {
		t.Errorf("SetTracking = %v, want injected fault", err)
	}
	// One-shot: the next call succeeds.
	if err := s.SetTracking(true); err != nil {
		t.Errorf("second SetTracking = %v", err)
	}
	st, _ := s.Status()
	if !st.Tracking {
		t.Error("tracking not recorded")
	}
}

func TestSimulatorHome(t *testing.T) {
	s := testSimulator(t)
	if err := s.FindHome(); err != nil {
		t.Fatal(err)
	}
	st, _ := s.Status()
	if st.Alt != math.Pi/4 || st.Az != 0 {
		t.Errorf("home position = (%v, %v), want (pi/4, 0)", st.Alt, st.Az)
	}
}
