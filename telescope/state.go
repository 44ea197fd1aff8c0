package telescope

// State is the supervisor's canonical state. The order is load-bearing:
// command preconditions compare states numerically, e.g. motion commands
// require at least StateStopped.
type State int

const (
	StateDisabled State = iota
	StateInitializing
	StateStopped
	StateSlewing
	StateTracking
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "Disabled"
	case StateInitializing:
		return "Initializing"
	case StateStopped:
		return "Stopped"
	case StateSlewing:
		return "Slewing"
	case StateTracking:
		return "Tracking"
	}
	return "Unknown"
}
