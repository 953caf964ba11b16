// Package gate decides whether a request may proceed given the station's
// shift and closing state. It does no I/O; the transport builds State.
package gate

type RouteKind int

const (
	// RouteApp is any ordinary application route. It is the zero value so an
	// unclassified route is gated.
	RouteApp RouteKind = iota
	RoutePublic
	RouteShift
	RouteClosing
)

func (k RouteKind) String() string {
	switch k {
	case RoutePublic:
		return "public"
	case RouteShift:
		return "shift"
	case RouteClosing:
		return "closing"
	default:
		return "app"
	}
}

const (
	RedirectCloseShift   = "/shifts/close"
	RedirectCloseStation = "/closings/station"
	RedirectOpenShift    = "/shifts/open"
)

const (
	ReasonStaleShift     = "open shift from an earlier business date must be closed"
	ReasonPendingClosing = "station closing for an earlier business date is missing"
	ReasonNoShift        = "no open shift for this station"
)

// State is what the gate knows about the calling station.
type State struct {
	// Today is the current business date (YYYY-MM-DD).
	Today string
	// OpenShiftDate is the business date of the station's oldest open shift,
	// empty when no shift is open.
	OpenShiftDate string
	// PendingClosingDate is an earlier business date on which the station had
	// activity but has no closing and the store is not finalized.
	PendingClosingDate string
}

type Decision struct {
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func allow() Decision {
	return Decision{Allow: true}
}

func redirect(target string, reason string) Decision {
	return Decision{Redirect: target, Reason: reason}
}

// Check applies the rules in order; the first match wins.
func Check(state State, kind RouteKind) Decision {
	if kind == RoutePublic {
		return allow()
	}

	// Business dates are YYYY-MM-DD so lexical order is chronological.
	if state.OpenShiftDate != "" && state.OpenShiftDate < state.Today {
		if kind == RouteShift {
			return allow()
		}
		return redirect(RedirectCloseShift, ReasonStaleShift)
	}

	if state.PendingClosingDate != "" && state.PendingClosingDate < state.Today && kind == RouteApp {
		return redirect(RedirectCloseStation, ReasonPendingClosing)
	}

	if state.OpenShiftDate == "" && kind == RouteApp {
		return redirect(RedirectOpenShift, ReasonNoShift)
	}

	return allow()
}
