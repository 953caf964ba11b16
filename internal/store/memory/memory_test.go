package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutupkas/backend/internal/domain"
	"tutupkas/backend/internal/store"
)

var jan15 = domain.DayRange{
	Start: time.Date(2026, 1, 14, 17, 0, 0, 0, time.UTC),
	End:   time.Date(2026, 1, 15, 17, 0, 0, 0, time.UTC),
}

func TestAggregatesRespectDayRangeAndStation(t *testing.T) {
	ctx := context.Background()
	s := New()

	inDay := jan15.Start.Add(2 * time.Hour)
	s.RecordSale(domain.SaleRecord{StoreID: "s1", StationID: "a", PaymentMethod: "cash", FinalAmount: 100, Discount: 5, Tax: 10, CreatedAt: inDay})
	s.RecordSale(domain.SaleRecord{StoreID: "s1", StationID: "a", PaymentMethod: "qris", FinalAmount: 40, CreatedAt: inDay})
	s.RecordSale(domain.SaleRecord{StoreID: "s1", StationID: "b", PaymentMethod: "cash", FinalAmount: 70, CreatedAt: inDay})
	// End is exclusive.
	s.RecordSale(domain.SaleRecord{StoreID: "s1", StationID: "a", PaymentMethod: "cash", FinalAmount: 999, CreatedAt: jan15.End})
	s.RecordSale(domain.SaleRecord{StoreID: "s2", StationID: "a", PaymentMethod: "cash", FinalAmount: 999, CreatedAt: inDay})
	s.RecordSalesReturn(domain.ReturnRecord{StoreID: "s1", StationID: "a", FinalAmount: 15, CreatedAt: inDay})

	agg, err := s.AggregateSales(ctx, "s1", "a", jan15)
	require.NoError(t, err)
	assert.Equal(t, int64(140), agg.Total)
	assert.Equal(t, int64(2), agg.Count)
	assert.Equal(t, int64(5), agg.Discount)
	assert.Equal(t, int64(10), agg.Tax)
	assert.Equal(t, map[string]int64{"cash": 100, "qris": 40}, agg.ByPaymentMethod)

	storeWide, err := s.AggregateSales(ctx, "s1", "", jan15)
	require.NoError(t, err)
	assert.Equal(t, int64(210), storeWide.Total)

	returns, err := s.SumSalesReturns(ctx, "s1", "a", jan15)
	require.NoError(t, err)
	assert.Equal(t, int64(15), returns)
}

func TestInvolvedStationsCollectsEveryActivity(t *testing.T) {
	ctx := context.Background()
	s := New()
	inDay := jan15.Start.Add(time.Hour)

	s.PutShift(domain.Shift{StoreID: "s1", StationID: "c", UserID: "u", StartTime: inDay, Status: domain.ShiftStatusClosed})
	s.RecordSale(domain.SaleRecord{StoreID: "s1", StationID: "a", FinalAmount: 1, CreatedAt: inDay})
	s.RecordPurchaseReturn(domain.ReturnRecord{StoreID: "s1", StationID: "b", FinalAmount: 1, CreatedAt: inDay})
	s.RecordPurchase(domain.PurchaseRecord{StoreID: "s1", StationID: "z", FinalAmount: 1, CreatedAt: jan15.Start.Add(-time.Minute)})

	involved, err := s.InvolvedStations(ctx, "s1", jan15)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, involved)
}

func TestLastStationActivityBefore(t *testing.T) {
	ctx := context.Background()
	s := New()

	none, err := s.LastStationActivityBefore(ctx, "s1", "a", jan15.End)
	require.NoError(t, err)
	assert.Nil(t, none)

	early := jan15.Start.Add(-48 * time.Hour)
	late := jan15.Start.Add(-3 * time.Hour)
	s.RecordSale(domain.SaleRecord{StoreID: "s1", StationID: "a", FinalAmount: 1, CreatedAt: early})
	s.PutShift(domain.Shift{StoreID: "s1", StationID: "a", UserID: "u", StartTime: late, Status: domain.ShiftStatusClosed})
	s.RecordSale(domain.SaleRecord{StoreID: "s1", StationID: "a", FinalAmount: 1, CreatedAt: jan15.Start})

	got, err := s.LastStationActivityBefore(ctx, "s1", "a", jan15.Start)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(late))
}

func TestShiftLifecycleConstraints(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.CreateShift(ctx, domain.Shift{StoreID: "s1", UserID: "u", Code: "SFT-20260115-0001"})
	assert.True(t, errors.Is(err, store.ErrInvalidTransaction))

	created, err := s.CreateShift(ctx, domain.Shift{StoreID: "s1", StationID: "a", UserID: "u", Code: "SFT-20260115-0001", InitialCash: 50})
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusOpen, created.Status)

	_, err = s.CreateShift(ctx, domain.Shift{StoreID: "s1", StationID: "b", UserID: "v", Code: "SFT-20260115-0001"})
	assert.True(t, errors.Is(err, store.ErrDuplicate))

	open, err := s.GetOpenShiftForStation(ctx, "s1", "a")
	require.NoError(t, err)
	assert.Equal(t, created.ID, open.ID)

	closed, err := s.CloseShift(ctx, domain.Shift{ID: created.ID, FinalCash: 60, Variance: 10})
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusClosed, closed.Status)
	require.NotNil(t, closed.EndTime)

	_, err = s.CloseShift(ctx, domain.Shift{ID: created.ID})
	assert.True(t, errors.Is(err, store.ErrNotFound))

	_, err = s.GetOpenShiftForUser(ctx, "s1", "u")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestClosingsAreUniquePerKey(t *testing.T) {
	ctx := context.Background()
	s := New()

	closing := domain.StationDailyClosing{
		StoreID:      "s1",
		StationID:    "a",
		BusinessDate: "2026-01-15",
		CashCounted:  10,
		Meta:         domain.StationClosingMeta{Payments: map[string]int64{"cash": 10}},
	}
	created, err := s.CreateStationClosing(ctx, closing)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = s.CreateStationClosing(ctx, closing)
	assert.True(t, errors.Is(err, store.ErrDuplicate))

	// Returned copies must not alias stored maps.
	created.Meta.Payments["cash"] = 999
	stored, err := s.GetStationClosing(ctx, "s1", "a", "2026-01-15")
	require.NoError(t, err)
	assert.Equal(t, int64(10), stored.Meta.Payments["cash"])

	_, err = s.CreateDailyClosing(ctx, domain.DailyClosing{StoreID: "s1", BusinessDate: "2026-01-15"})
	require.NoError(t, err)
	_, err = s.CreateDailyClosing(ctx, domain.DailyClosing{StoreID: "s1", BusinessDate: "2026-01-15"})
	assert.True(t, errors.Is(err, store.ErrDuplicate))

	_, err = s.GetDailyClosing(ctx, "s1", "2026-01-16")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestWithinTxHonoursCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithinTx(ctx, func(tx store.Repository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
