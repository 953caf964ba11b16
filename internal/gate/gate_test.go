package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	const today = "2026-01-15"

	cases := []struct {
		name  string
		state State
		kind  RouteKind
		want  Decision
	}{
		{
			name:  "public routes always pass",
			state: State{Today: today, OpenShiftDate: "2026-01-10", PendingClosingDate: "2026-01-09"},
			kind:  RoutePublic,
			want:  Decision{Allow: true},
		},
		{
			name:  "stale shift blocks app routes",
			state: State{Today: today, OpenShiftDate: "2026-01-14"},
			kind:  RouteApp,
			want:  Decision{Redirect: RedirectCloseShift, Reason: ReasonStaleShift},
		},
		{
			name:  "stale shift blocks closing routes",
			state: State{Today: today, OpenShiftDate: "2026-01-14"},
			kind:  RouteClosing,
			want:  Decision{Redirect: RedirectCloseShift, Reason: ReasonStaleShift},
		},
		{
			name:  "stale shift lets shift routes through so it can be closed",
			state: State{Today: today, OpenShiftDate: "2026-01-14"},
			kind:  RouteShift,
			want:  Decision{Allow: true},
		},
		{
			name:  "pending closing blocks app routes",
			state: State{Today: today, OpenShiftDate: today, PendingClosingDate: "2026-01-14"},
			kind:  RouteApp,
			want:  Decision{Redirect: RedirectCloseStation, Reason: ReasonPendingClosing},
		},
		{
			name:  "pending closing leaves closing routes open",
			state: State{Today: today, PendingClosingDate: "2026-01-14"},
			kind:  RouteClosing,
			want:  Decision{Allow: true},
		},
		{
			name:  "pending closing leaves shift routes open",
			state: State{Today: today, PendingClosingDate: "2026-01-14"},
			kind:  RouteShift,
			want:  Decision{Allow: true},
		},
		{
			name:  "no shift redirects app routes to open one",
			state: State{Today: today},
			kind:  RouteApp,
			want:  Decision{Redirect: RedirectOpenShift, Reason: ReasonNoShift},
		},
		{
			name:  "no shift still allows closing routes",
			state: State{Today: today},
			kind:  RouteClosing,
			want:  Decision{Allow: true},
		},
		{
			name:  "today's shift allows app routes",
			state: State{Today: today, OpenShiftDate: today},
			kind:  RouteApp,
			want:  Decision{Allow: true},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Check(tc.state, tc.kind))
		})
	}
}

func TestZeroRouteKindIsGated(t *testing.T) {
	var kind RouteKind
	assert.Equal(t, "app", kind.String())
	assert.False(t, Check(State{Today: "2026-01-15"}, kind).Allow)
}
