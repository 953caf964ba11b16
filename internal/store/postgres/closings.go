package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"tutupkas/backend/internal/domain"
	"tutupkas/backend/internal/store"
	"tutupkas/backend/internal/xid"
)

const stationClosingColumns = `id, store_id, station_id, to_char(business_date, 'YYYY-MM-DD'),
	cash_counted, expected_cash, variance, total_sales, total_sales_return,
	total_purchase, total_purchase_return, total_discount, total_tax,
	sales_count, shift_count, initial_cash_sum, cash_sales, cash_purchase,
	closed_by, closed_at, COALESCE(notes, ''), meta`

const dailyClosingColumns = `id, store_id, to_char(business_date, 'YYYY-MM-DD'),
	cash_counted_total, expected_cash_total, variance_total, total_sales, total_sales_return,
	total_purchase, total_purchase_return, total_discount, total_tax,
	sales_count, shift_count, station_count, finalized_by, finalized_at,
	COALESCE(notes, ''), meta`

func (s *Store) CreateStationClosing(ctx context.Context, c domain.StationDailyClosing) (*domain.StationDailyClosing, error) {
	if c.StoreID == "" || c.StationID == "" || c.BusinessDate == "" {
		return nil, store.ErrInvalidTransaction
	}
	if c.ID == "" {
		c.ID = xid.New("stc")
	}
	meta, err := json.Marshal(c.Meta)
	if err != nil {
		return nil, err
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO station_daily_closings (
			id, store_id, station_id, business_date,
			cash_counted, expected_cash, variance, total_sales, total_sales_return,
			total_purchase, total_purchase_return, total_discount, total_tax,
			sales_count, shift_count, initial_cash_sum, cash_sales, cash_purchase,
			closed_by, closed_at, notes, meta
		)
		VALUES ($1,$2,$3,$4::date,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22::jsonb)
	`, c.ID, c.StoreID, c.StationID, c.BusinessDate,
		c.CashCounted, c.ExpectedCash, c.Variance, c.TotalSales, c.TotalSalesReturn,
		c.TotalPurchase, c.TotalPurchaseReturn, c.TotalDiscount, c.TotalTax,
		c.SalesCount, c.ShiftCount, c.InitialCashSum, c.CashSales, c.CashPurchase,
		c.ClosedBy, c.ClosedAt, nullIfEmpty(c.Notes), string(meta))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	saved := c
	return &saved, nil
}

func (s *Store) GetStationClosing(ctx context.Context, storeID string, stationID string, businessDate string) (*domain.StationDailyClosing, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+stationClosingColumns+`
		FROM station_daily_closings
		WHERE store_id = $1 AND station_id = $2 AND business_date = $3::date
	`, storeID, stationID, businessDate)
	return scanStationClosing(row)
}

func (s *Store) ListStationClosings(ctx context.Context, storeID string, businessDate string) ([]domain.StationDailyClosing, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+stationClosingColumns+`
		FROM station_daily_closings
		WHERE store_id = $1 AND business_date = $2::date
		ORDER BY station_id ASC
	`, storeID, businessDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	closings := make([]domain.StationDailyClosing, 0, 8)
	for rows.Next() {
		c, err := scanStationClosing(rows)
		if err != nil {
			return nil, err
		}
		closings = append(closings, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return closings, nil
}

func scanStationClosing(row rowScanner) (*domain.StationDailyClosing, error) {
	var c domain.StationDailyClosing
	var meta []byte
	err := row.Scan(
		&c.ID, &c.StoreID, &c.StationID, &c.BusinessDate,
		&c.CashCounted, &c.ExpectedCash, &c.Variance, &c.TotalSales, &c.TotalSalesReturn,
		&c.TotalPurchase, &c.TotalPurchaseReturn, &c.TotalDiscount, &c.TotalTax,
		&c.SalesCount, &c.ShiftCount, &c.InitialCashSum, &c.CashSales, &c.CashPurchase,
		&c.ClosedBy, &c.ClosedAt, &c.Notes, &meta,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &c.Meta); err != nil {
			return nil, err
		}
	}
	if c.Meta.Payments == nil {
		c.Meta.Payments = map[string]int64{}
	}
	c.ClosedAt = c.ClosedAt.UTC()
	return &c, nil
}

func (s *Store) CreateDailyClosing(ctx context.Context, c domain.DailyClosing) (*domain.DailyClosing, error) {
	if c.StoreID == "" || c.BusinessDate == "" {
		return nil, store.ErrInvalidTransaction
	}
	if c.ID == "" {
		c.ID = xid.New("dcl")
	}
	meta, err := json.Marshal(c.Meta)
	if err != nil {
		return nil, err
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO daily_closings (
			id, store_id, business_date,
			cash_counted_total, expected_cash_total, variance_total, total_sales, total_sales_return,
			total_purchase, total_purchase_return, total_discount, total_tax,
			sales_count, shift_count, station_count, finalized_by, finalized_at, notes, meta
		)
		VALUES ($1,$2,$3::date,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19::jsonb)
	`, c.ID, c.StoreID, c.BusinessDate,
		c.CashCountedTotal, c.ExpectedCashTotal, c.VarianceTotal, c.TotalSales, c.TotalSalesReturn,
		c.TotalPurchase, c.TotalPurchaseReturn, c.TotalDiscount, c.TotalTax,
		c.SalesCount, c.ShiftCount, c.StationCount, c.FinalizedBy, c.FinalizedAt, nullIfEmpty(c.Notes), string(meta))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	saved := c
	return &saved, nil
}

func (s *Store) GetDailyClosing(ctx context.Context, storeID string, businessDate string) (*domain.DailyClosing, error) {
	var c domain.DailyClosing
	var meta []byte
	err := s.q.QueryRowContext(ctx, `
		SELECT `+dailyClosingColumns+`
		FROM daily_closings
		WHERE store_id = $1 AND business_date = $2::date
	`, storeID, businessDate).Scan(
		&c.ID, &c.StoreID, &c.BusinessDate,
		&c.CashCountedTotal, &c.ExpectedCashTotal, &c.VarianceTotal, &c.TotalSales, &c.TotalSalesReturn,
		&c.TotalPurchase, &c.TotalPurchaseReturn, &c.TotalDiscount, &c.TotalTax,
		&c.SalesCount, &c.ShiftCount, &c.StationCount, &c.FinalizedBy, &c.FinalizedAt,
		&c.Notes, &meta,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &c.Meta); err != nil {
			return nil, err
		}
	}
	c.FinalizedAt = c.FinalizedAt.UTC()
	return &c, nil
}
