// Package mount talks to the telescope mount controller.
//
// The controller's automation interface is single-owner: once a Channel is
// handed to the telescope supervisor, exactly one goroutine may call it.
// Nothing here enforces that with locks; ownership is the contract.
package mount

// Axis identifies one mount axis for relative jogs.
type Axis int

const (
	AxisRA Axis = iota
	AxisDec
	AxisAlt
	AxisAz
)

func (a Axis) String() string {
	switch a {
	case AxisRA:
		return "RA"
	case AxisDec:
		return "DEC"
	case AxisAlt:
		return "ALT"
	case AxisAz:
		return "AZ"
	}
	return "UNKNOWN"
}

// Status is one polled snapshot of the mount. Angles are radians in the
// apparent (topocentric) frame.
type Status struct {
	Tracking bool
	Slewing  bool
	RA       float64
	Dec      float64
	Alt      float64
	Az       float64
}

// Channel is the command surface of the mount controller. Slews and jogs
// start motion and return; completion is observed by polling Status.
// FindHome blocks until the homing run finishes.
type Channel interface {
	Connect() error
	Disconnect() error
	FindHome() error
	SetTracking(enabled bool) error
	SlewToEquatorial(ra, dec float64) error
	SlewToHorizontal(alt, az float64) error
	Jog(axis Axis, delta float64) error
	AbortSlew() error
	Status() (Status, error)
}
