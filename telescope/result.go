package telescope

import "github.com/warwick-one-metre/rasa-teld/mount"

// Result is the outcome code a command returns to its caller. Hardware
// failures never cross the command boundary as errors; they are mapped to
// one of these.
type Result int

const (
	ResultSucceeded Result = iota
	ResultFailed
	ResultBlocked
	ResultNotEnabled
	ResultNotDisabled
	ResultInitializing
	ResultSerialNotAvailable
	ResultSerialTimeout
	ResultSlewAborted
	ResultCoordinatesOutsideLimits
)

func (r Result) String() string {
	switch r {
	case ResultSucceeded:
		return "Succeeded"
	case ResultFailed:
		return "Failed"
	case ResultBlocked:
		return "Blocked"
	case ResultNotEnabled:
		return "NotEnabled"
	case ResultNotDisabled:
		return "NotDisabled"
	case ResultInitializing:
		return "Initializing"
	case ResultSerialNotAvailable:
		return "SerialNotAvailable"
	case ResultSerialTimeout:
		return "SerialTimeout"
	case ResultSlewAborted:
		return "SlewAborted"
	case ResultCoordinatesOutsideLimits:
		return "CoordinatesOutsideLimits"
	}
	return "Unknown"
}

// resultForFault maps a classified channel failure to the result code a
// blocked client sees.
func resultForFault(err error) Result {
	switch mount.Classify(err) {
	case mount.FaultNotConnected:
		return ResultSerialNotAvailable
	case mount.FaultTimeout:
		return ResultSerialTimeout
	}
	return ResultFailed
}
