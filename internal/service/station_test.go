package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutupkas/backend/internal/domain"
	"tutupkas/backend/internal/gate"
)

func adminContext() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleAdmin, StoreID: testStore})
}

func TestResolveStationUnknownDevice(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.ResolveStation(context.Background(), testStore, "fp-unknown")
	requireCode(t, err, domain.CodeNotRegistered)

	_, err = h.svc.ResolveStation(context.Background(), testStore, "   ")
	requireCode(t, err, domain.CodeNotRegistered)
}

func TestResolveStationTouchesLastSeen(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")

	got, err := h.svc.ResolveStation(context.Background(), testStore, "fp-station-a")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	require.NotNil(t, got.LastSeenAt)

	stored, err := h.repo.GetStationByID(context.Background(), testStore, a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastSeenAt)
	assert.True(t, stored.LastSeenAt.Equal(h.clock))
}

func TestResolveStationRejectsOtherStoreAndInactive(t *testing.T) {
	h := newHarness(t)
	_, err := h.repo.CreateStation(context.Background(), domain.Station{StoreID: "branch-2", DeviceFingerprint: "fp-branch", Name: "Branch", Active: true})
	require.NoError(t, err)
	_, err = h.repo.CreateStation(context.Background(), domain.Station{StoreID: testStore, DeviceFingerprint: "fp-off", Name: "Off", Active: false})
	require.NoError(t, err)

	_, err = h.svc.ResolveStation(context.Background(), testStore, "fp-branch")
	requireCode(t, err, domain.CodeNotRegistered)

	_, err = h.svc.ResolveStation(context.Background(), testStore, "fp-off")
	requireCode(t, err, domain.CodeStationInactive)
}

func TestResolveStationAutoRegister(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.StationAutoRegister = true })

	first, err := h.svc.ResolveStation(context.Background(), testStore, "fp-abcdef1234")
	require.NoError(t, err)
	assert.Equal(t, "Station FP-ABCDE", first.Name)
	assert.True(t, first.Active)

	second, err := h.svc.ResolveStation(context.Background(), testStore, "fp-abcdef1234")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	stations, err := h.svc.ListStations(adminContext(), testStore)
	require.NoError(t, err)
	require.Len(t, stations, 1)
}

func TestRegisterStationRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	req := domain.StationRegisterRequest{DeviceFingerprint: "fp-new", Name: "Kasir Depan"}

	cashierCtx := WithActor(context.Background(), domain.Actor{Username: "cashier", Role: domain.RoleCashier})
	_, err := h.svc.RegisterStation(cashierCtx, testStore, req)
	require.ErrorIs(t, err, ErrAdminRequired)

	created, err := h.svc.RegisterStation(adminContext(), testStore, req)
	require.NoError(t, err)
	assert.Equal(t, "Kasir Depan", created.Name)

	_, err = h.svc.RegisterStation(adminContext(), testStore, req)
	requireCode(t, err, domain.CodeInvalidInput)

	resolved, err := h.svc.ResolveStation(context.Background(), testStore, "fp-new")
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)
}

func TestGateStateFreshStation(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")

	state, err := h.svc.GateState(context.Background(), stationRC(a.ID))
	require.NoError(t, err)
	assert.Equal(t, gate.State{Today: today}, state)

	decision, err := h.svc.Gate(context.Background(), stationRC(a.ID), gate.RouteApp)
	require.NoError(t, err)
	assert.Equal(t, gate.RedirectOpenShift, decision.Redirect)
}

func TestGateStateStaleShift(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")
	h.openShift(a.ID, yesterday, 100000)

	state, err := h.svc.GateState(context.Background(), stationRC(a.ID))
	require.NoError(t, err)
	assert.Equal(t, yesterday, state.OpenShiftDate)

	decision, err := h.svc.Gate(context.Background(), stationRC(a.ID), gate.RouteApp)
	require.NoError(t, err)
	assert.Equal(t, gate.RedirectCloseShift, decision.Redirect)

	decision, err = h.svc.Gate(context.Background(), stationRC(a.ID), gate.RouteShift)
	require.NoError(t, err)
	assert.True(t, decision.Allow)
}

func TestGateStatePendingClosingClearsAfterClose(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")
	h.closedShift(a.ID, yesterday, 100000)
	h.cashSale(a.ID, yesterday, 20000)

	state, err := h.svc.GateState(context.Background(), stationRC(a.ID))
	require.NoError(t, err)
	assert.Equal(t, yesterday, state.PendingClosingDate)

	decision, err := h.svc.Gate(context.Background(), stationRC(a.ID), gate.RouteApp)
	require.NoError(t, err)
	assert.Equal(t, gate.RedirectCloseStation, decision.Redirect)

	_, err = h.svc.CloseStation(context.Background(), stationRC(a.ID), closeReq(yesterday, 120000))
	require.NoError(t, err)

	state, err = h.svc.GateState(context.Background(), stationRC(a.ID))
	require.NoError(t, err)
	assert.Empty(t, state.PendingClosingDate)
}

func TestGateStateIgnoresFinalizedDate(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")
	b := h.station(t, "fp-station-b")

	_, err := h.svc.Finalize(context.Background(), stationRC(a.ID), finalizeReq(yesterday))
	require.NoError(t, err)
	// A late row on a finalized date leaves nothing for the station to close.
	h.repo.RecordSale(domain.SaleRecord{StoreID: testStore, StationID: b.ID, PaymentMethod: "cash", FinalAmount: 1000, CreatedAt: at(yesterday, 20).UTC()})

	state, err := h.svc.GateState(context.Background(), stationRC(b.ID))
	require.NoError(t, err)
	assert.Empty(t, state.PendingClosingDate)
}
