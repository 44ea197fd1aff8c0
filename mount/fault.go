package mount

import (
	"errors"
	"strings"
)

// FaultKind classifies a controller failure.
type FaultKind int

const (
	FaultOther FaultKind = iota
	FaultNotConnected
	FaultTimeout
	FaultOutsideLimits
	FaultBusy
)

func (k FaultKind) String() string {
	switch k {
	case FaultNotConnected:
		return "not_connected"
	case FaultTimeout:
		return "timeout"
	case FaultOutsideLimits:
		return "outside_limits"
	case FaultBusy:
		return "busy"
	}
	return "other"
}

// Fault is a classified controller failure.
type Fault struct {
	Kind FaultKind
	Msg  string
}

func (f *Fault) Error() string {
	if f.Msg == "" {
		return f.Kind.String()
	}
	return f.Msg
}

// Known message prefixes sent by controller firmware that predates numeric
// error codes. Matching free text is fragile: a firmware update can silently
// break classification. Prefer the structured code whenever one is present.
var textPrefixes = []struct {
	prefix string
	kind   FaultKind
}{
	{"not connected", FaultNotConnected},
	{"no response", FaultTimeout},
	{"timed out", FaultTimeout},
	{"target outside", FaultOutsideLimits},
	{"outside limits", FaultOutsideLimits},
	{"slew in progress", FaultBusy},
	{"command in progress", FaultBusy},
}

func classifyText(msg string) FaultKind {
	msg = strings.ToLower(msg)
	for _, p := range textPrefixes {
		if strings.HasPrefix(msg, p.prefix) {
			return p.kind
		}
	}
	return FaultOther
}

// Classify returns the fault kind for a channel error. Structured faults
// carry their own kind; anything else falls back to prefix-matching the
// message text.
func Classify(err error) FaultKind {
	if err == nil {
		return FaultOther
	}
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return classifyText(err.Error())
}
