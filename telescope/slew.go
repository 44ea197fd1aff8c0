package telescope

type slewKind int

const (
	slewHorizontal slewKind = iota
	slewEquatorial
	offsetHorizontalPhase1
	offsetHorizontalPhase2
	offsetEquatorialPhase1
	offsetEquatorialPhase2
)

// absolute reports whether the kind is a full slew rather than an offset
// phase. Absolute requests resolve when the mount reports the slew complete;
// offsets resolve when their second jog has been dispatched.
func (k slewKind) absolute() bool {
	return k == slewHorizontal || k == slewEquatorial
}

// slewRequest is one pending motion request. The gateway allocates it and
// hands the pointer to the supervisor; the supervisor is the only writer of
// kind and the terminal flags, and clearing the pending pointer is the sole
// wake signal. The gateway keeps its own pointer and reads the terminal
// flags after waking.
//
// For absolute kinds a and b are the target pointing; for offsets they are
// the two per-axis deltas. Radians throughout, equatorial targets in the
// catalog frame.
type slewRequest struct {
	kind slewKind
	a, b float64

	// dispatched is set once the loop issues the request's first hardware
	// call. Slew completion only ever resolves a dispatched request: one
	// posted while a previous motion is still winding down must wait for
	// its own dispatch.
	dispatched bool

	// restoreTracking records the tracking intent the gateway replaced, so
	// a request rejected at dispatch can put it back.
	restoreTracking bool
	prevTracking    bool

	aborted       bool
	outsideLimits bool
}

func (r *slewRequest) result() Result {
	switch {
	case r.outsideLimits:
		return ResultCoordinatesOutsideLimits
	case r.aborted:
		return ResultSlewAborted
	}
	return ResultSucceeded
}
