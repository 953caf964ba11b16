package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutupkas/backend/internal/domain"
	"tutupkas/backend/internal/lock"
)

func TestCloseStationSingleShiftScenario(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")
	h.closedShift(a.ID, today, 100000)
	h.cashSale(a.ID, today, 50000)

	closing, err := h.svc.CloseStation(context.Background(), stationRC(a.ID), closeReq(today, 150000))
	require.NoError(t, err)

	assert.Equal(t, int64(150000), closing.ExpectedCash)
	assert.Equal(t, int64(0), closing.Variance)
	assert.Equal(t, int64(1), closing.ShiftCount)
	assert.Equal(t, int64(1), closing.SalesCount)
	assert.Equal(t, int64(50000), closing.CashSales)
	assert.Equal(t, today, closing.BusinessDate)
	assert.Equal(t, "admin", closing.ClosedBy)
	assert.Equal(t, domain.VarianceClassNormal, closing.Meta.VarianceClass)
	assert.Equal(t, "0.00", closing.Meta.VariancePercent)
	assert.Equal(t, map[string]int64{"cash": 50000}, closing.Meta.Payments)
}

func TestCloseStationReportsShortage(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")
	h.closedShift(a.ID, today, 100000)
	h.cashSale(a.ID, today, 500000)
	h.repo.RecordSalesReturn(domain.ReturnRecord{StoreID: testStore, StationID: a.ID, FinalAmount: 20000, CreatedAt: at(today, 11).UTC()})
	h.repo.RecordPurchase(domain.PurchaseRecord{StoreID: testStore, StationID: a.ID, PaymentMethod: domain.PaymentMethodCash, FinalAmount: 150000, CreatedAt: at(today, 12).UTC()})
	h.repo.RecordPurchaseReturn(domain.ReturnRecord{StoreID: testStore, StationID: a.ID, FinalAmount: 10000, CreatedAt: at(today, 13).UTC()})

	closing, err := h.svc.CloseStation(context.Background(), stationRC(a.ID), closeReq(today, 430000))
	require.NoError(t, err)

	assert.Equal(t, int64(440000), closing.ExpectedCash)
	assert.Equal(t, int64(-10000), closing.Variance)
	assert.Equal(t, "-2.27", closing.Meta.VariancePercent)
	assert.Equal(t, domain.VarianceClassWarning, closing.Meta.VarianceClass)
}

func TestCloseStationTwiceKeepsFirstClosing(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")
	h.closedShift(a.ID, today, 100000)
	h.cashSale(a.ID, today, 50000)

	first, err := h.svc.CloseStation(context.Background(), stationRC(a.ID), closeReq(today, 150000))
	require.NoError(t, err)

	h.clock = h.clock.Add(time.Hour)
	_, err = h.svc.CloseStation(context.Background(), stationRC(a.ID), closeReq(today, 999999))
	requireCode(t, err, domain.CodeAlreadyClosed)

	// A wrong secret on a closed date still reports the closing, not the secret.
	bad := closeReq(today, 1)
	bad.AuthPassword = "wrong"
	_, err = h.svc.CloseStation(context.Background(), stationRC(a.ID), bad)
	requireCode(t, err, domain.CodeAlreadyClosed)

	stored, err := h.repo.GetStationClosing(context.Background(), testStore, a.ID, today)
	require.NoError(t, err)
	require.Equal(t, first, *stored)
}

func TestCloseStationConcurrentClosersOneWins(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")
	h.closedShift(a.ID, today, 100000)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.CloseStation(context.Background(), stationRC(a.ID), closeReq(today, 100000))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t, errors.Is(err, domain.ErrAlreadyClosed), "unexpected error: %v", err)
	}
	require.Equal(t, 1, succeeded)
}

func TestCloseStationRejectsOpenShift(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")
	h.openShift(a.ID, today, 100000)

	_, err := h.svc.CloseStation(context.Background(), stationRC(a.ID), closeReq(today, 100000))
	requireCode(t, err, domain.CodeOpenShiftExists)
}

func TestCloseStationRejectsBadSecret(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")
	h.closedShift(a.ID, today, 100000)

	req := closeReq(today, 100000)
	req.AuthPassword = closeShiftSecret
	_, err := h.svc.CloseStation(context.Background(), stationRC(a.ID), req)
	fieldErr := requireCode(t, err, domain.CodeBadAuth)
	require.Equal(t, "verification password incorrect", fieldErr.Message)

	_, err = h.repo.GetStationClosing(context.Background(), testStore, a.ID, today)
	require.Error(t, err)
}

func TestCloseStationValidatesInput(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")

	_, err := h.svc.CloseStation(context.Background(), stationRC(a.ID), closeReq("2026-01-16", 0))
	requireCode(t, err, domain.CodeInvalidInput)

	_, err = h.svc.CloseStation(context.Background(), stationRC(a.ID), closeReq("not-a-date", 0))
	requireCode(t, err, domain.CodeInvalidInput)

	_, err = h.svc.CloseStation(context.Background(), stationRC(a.ID), closeReq(today, -1))
	requireCode(t, err, domain.CodeInvalidInput)

	_, err = h.svc.CloseStation(context.Background(), stationRC("st-unknown"), closeReq(today, 0))
	requireCode(t, err, domain.CodeNotRegistered)
}

func TestCloseStationRejectsInactiveStation(t *testing.T) {
	h := newHarness(t)
	station, err := h.repo.CreateStation(context.Background(), domain.Station{
		StoreID:           testStore,
		DeviceFingerprint: "fp-retired",
		Name:              "Retired",
		Active:            false,
	})
	require.NoError(t, err)

	_, err = h.svc.CloseStation(context.Background(), stationRC(station.ID), closeReq(today, 0))
	requireCode(t, err, domain.CodeStationInactive)
}

func TestCloseStationWaitsForClosingLock(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.ClosingLockTTL = 20 * time.Millisecond })
	a := h.station(t, "fp-station-a")

	release, err := h.locker.Acquire(context.Background(), lock.ClosingKey(testStore, today), time.Second)
	require.NoError(t, err)

	_, err = h.svc.CloseStation(context.Background(), stationRC(a.ID), closeReq(today, 0))
	require.ErrorIs(t, err, ErrClosingBusy)

	release(context.Background())
	_, err = h.svc.CloseStation(context.Background(), stationRC(a.ID), closeReq(today, 0))
	require.NoError(t, err)
}

func TestPreviewStationDoesNotWrite(t *testing.T) {
	h := newHarness(t)
	a := h.station(t, "fp-station-a")
	h.closedShift(a.ID, today, 100000)
	h.cashSale(a.ID, today, 50000)

	preview, err := h.svc.PreviewStation(context.Background(), stationRC(a.ID), "")
	require.NoError(t, err)
	require.Equal(t, today, preview.BusinessDate)
	require.Equal(t, int64(150000), preview.Summary.ExpectedCash)

	closings, err := h.svc.ListStationClosings(context.Background(), testStore, today)
	require.NoError(t, err)
	require.Empty(t, closings)
}
