package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutupkas/backend/internal/domain"
)

func cashierRC(stationID string) domain.RequestContext {
	return domain.RequestContext{StoreID: testStore, UserID: "cashier", StationID: stationID}
}

func TestOpenShiftAssignsDailyCode(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")

	shift, err := h.svc.OpenShift(context.Background(), cashierRC(a.ID), 250000)
	require.NoError(t, err)

	assert.Equal(t, "SFT-20260115-0001", shift.Code)
	assert.Equal(t, domain.ShiftStatusOpen, shift.Status)
	assert.Equal(t, int64(250000), shift.InitialCash)
	assert.Equal(t, a.ID, shift.StationID)
	assert.Equal(t, "cashier", shift.UserID)
	assert.Nil(t, shift.EndTime)
}

func TestOpenShiftStoreDayScope(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")
	b := h.station(t, "fp-station-b")

	_, err := h.svc.OpenShift(context.Background(), cashierRC(a.ID), 100000)
	require.NoError(t, err)

	_, err = h.svc.OpenShift(context.Background(), domain.RequestContext{StoreID: testStore, UserID: "admin", StationID: b.ID}, 100000)
	requireCode(t, err, domain.CodeOpenShiftExists)
}

func TestOpenShiftStoreDayScopeIgnoresEarlierDays(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")
	b := h.station(t, "fp-station-b")
	h.openShift(a.ID, yesterday, 100000)

	shift, err := h.svc.OpenShift(context.Background(), cashierRC(b.ID), 100000)
	require.NoError(t, err)
	assert.Equal(t, "SFT-20260115-0001", shift.Code)
}

func TestOpenShiftStationScope(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.ShiftOpenScope = domain.ShiftScopeStation })
	a := h.station(t, "fp-station-a")
	b := h.station(t, "fp-station-b")

	_, err := h.svc.OpenShift(context.Background(), cashierRC(a.ID), 100000)
	require.NoError(t, err)

	second, err := h.svc.OpenShift(context.Background(), domain.RequestContext{StoreID: testStore, UserID: "admin", StationID: b.ID}, 100000)
	require.NoError(t, err)
	assert.Equal(t, "SFT-20260115-0002", second.Code)

	_, err = h.svc.OpenShift(context.Background(), domain.RequestContext{StoreID: testStore, UserID: "admin", StationID: a.ID}, 100000)
	requireCode(t, err, domain.CodeOpenShiftExists)
}

func TestOpenShiftRejectsClosedStationDay(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")
	b := h.station(t, "fp-station-b")
	h.closedShift(a.ID, today, 100000)

	_, err := h.svc.CloseStation(context.Background(), stationRC(a.ID), closeReq(today, 100000))
	require.NoError(t, err)

	_, err = h.svc.OpenShift(context.Background(), cashierRC(a.ID), 500000)
	requireCode(t, err, domain.CodeAlreadyClosed)

	open, err := h.repo.CountOpenShifts(context.Background(), testStore, a.ID, mustRange(t, h, today))
	require.NoError(t, err)
	assert.Zero(t, open)

	// Another station may still trade until the store finalizes.
	_, err = h.svc.OpenShift(context.Background(), cashierRC(b.ID), 100000)
	require.NoError(t, err)
}

func TestOpenShiftRejectsFinalizedDay(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")
	b := h.station(t, "fp-station-b")
	h.closedShift(a.ID, today, 100000)

	_, err := h.svc.CloseStation(context.Background(), stationRC(a.ID), closeReq(today, 100000))
	require.NoError(t, err)
	daily, err := h.svc.Finalize(context.Background(), stationRC(a.ID), finalizeReq(today))
	require.NoError(t, err)

	_, err = h.svc.OpenShift(context.Background(), cashierRC(b.ID), 500000)
	requireCode(t, err, domain.CodeAlreadyFinalized)

	sealed, err := h.svc.GetDailyClosing(context.Background(), testStore, today)
	require.NoError(t, err)
	assert.Equal(t, daily.ExpectedCashTotal, sealed.ExpectedCashTotal)
	assert.Equal(t, int64(1), sealed.StationCount)
}

func TestOpenShiftValidatesInput(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")

	_, err := h.svc.OpenShift(context.Background(), cashierRC(a.ID), -1)
	requireCode(t, err, domain.CodeInvalidInput)

	_, err = h.svc.OpenShift(context.Background(), cashierRC(""), 0)
	requireCode(t, err, domain.CodeInvalidInput)
}

func TestCloseShiftComputesVarianceAndEndsSessions(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")

	opened, err := h.svc.OpenShift(context.Background(), cashierRC(a.ID), 200000)
	require.NoError(t, err)

	h.repo.RecordSale(domain.SaleRecord{StoreID: testStore, StationID: a.ID, UserID: "cashier", PaymentMethod: "cash", FinalAmount: 50000, CreatedAt: opened.StartTime.Add(time.Hour)})
	h.repo.RecordSale(domain.SaleRecord{StoreID: testStore, StationID: a.ID, UserID: "cashier", PaymentMethod: "qris", FinalAmount: 25000, CreatedAt: opened.StartTime.Add(2 * time.Hour)})
	// Sales before the shift started are not part of it.
	h.repo.RecordSale(domain.SaleRecord{StoreID: testStore, StationID: a.ID, UserID: "cashier", PaymentMethod: "cash", FinalAmount: 99000, CreatedAt: opened.StartTime.Add(-time.Hour)})

	h.clock = h.clock.Add(8 * time.Hour)
	resp, err := h.svc.CloseShift(context.Background(), cashierRC(a.ID), 270000, closeShiftSecret)
	require.NoError(t, err)

	assert.Equal(t, opened.ID, resp.Shift.ID)
	assert.Equal(t, domain.ShiftStatusClosed, resp.Shift.Status)
	assert.Equal(t, int64(75000), resp.Shift.TotalSales)
	assert.Equal(t, int64(-5000), resp.Shift.Variance)
	require.NotNil(t, resp.Shift.EndTime)
	assert.True(t, resp.Shift.EndTime.Equal(h.clock))
	assert.True(t, resp.SessionTerminated)

	version, err := h.sessions.Version(context.Background(), "cashier")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	_, err = h.svc.ActiveShift(context.Background(), cashierRC(a.ID))
	requireCode(t, err, domain.CodeNoActiveShift)
}

func TestCloseShiftRejectsBadSecret(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")
	_, err := h.svc.OpenShift(context.Background(), cashierRC(a.ID), 200000)
	require.NoError(t, err)

	_, err = h.svc.CloseShift(context.Background(), cashierRC(a.ID), 200000, closeDaySecret)
	requireCode(t, err, domain.CodeBadAuth)

	_, err = h.svc.CloseShift(context.Background(), cashierRC(a.ID), 200000, "")
	requireCode(t, err, domain.CodeBadAuth)

	active, err := h.svc.ActiveShift(context.Background(), cashierRC(a.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusOpen, active.Status)

	version, err := h.sessions.Version(context.Background(), "cashier")
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
}

func TestCloseShiftWithoutOpenShift(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")

	_, err := h.svc.CloseShift(context.Background(), cashierRC(a.ID), 0, closeShiftSecret)
	requireCode(t, err, domain.CodeNoActiveShift)
}

func TestCloseShiftTakesOldestOpenShift(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")
	stale := h.openShift(a.ID, yesterday, 100000)

	resp, err := h.svc.CloseShift(context.Background(), cashierRC(a.ID), 100000, closeShiftSecret)
	require.NoError(t, err)
	assert.Equal(t, stale.ID, resp.Shift.ID)
	assert.Equal(t, int64(0), resp.Shift.Variance)
}
