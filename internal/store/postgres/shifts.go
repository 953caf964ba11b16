package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"tutupkas/backend/internal/domain"
	"tutupkas/backend/internal/store"
	"tutupkas/backend/internal/xid"
)

const shiftColumns = `id, code, store_id, station_id, user_id, start_time, end_time,
	initial_cash, final_cash, total_sales, variance, status`

func (s *Store) CreateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error) {
	if strings.TrimSpace(shift.StoreID) == "" || strings.TrimSpace(shift.StationID) == "" || strings.TrimSpace(shift.UserID) == "" {
		return nil, store.ErrInvalidTransaction
	}
	if shift.ID == "" {
		shift.ID = xid.New("shift")
	}
	if shift.StartTime.IsZero() {
		shift.StartTime = time.Now().UTC()
	}
	shift.Status = domain.ShiftStatusOpen
	shift.EndTime = nil

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO shifts (
			id, code, store_id, station_id, user_id, start_time, end_time,
			initial_cash, final_cash, total_sales, variance, status
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, shift.ID, shift.Code, shift.StoreID, shift.StationID, shift.UserID, shift.StartTime, nullTime(shift.EndTime),
		shift.InitialCash, shift.FinalCash, shift.TotalSales, shift.Variance, shift.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	saved := shift
	return &saved, nil
}

func (s *Store) CloseShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error) {
	endTime := time.Now().UTC()
	if shift.EndTime != nil {
		endTime = shift.EndTime.UTC()
	}

	row := s.q.QueryRowContext(ctx, `
		UPDATE shifts
		SET status = 'closed', end_time = $2, final_cash = $3, total_sales = $4, variance = $5
		WHERE id = $1 AND status = 'open'
		RETURNING `+shiftColumns,
		shift.ID, endTime, shift.FinalCash, shift.TotalSales, shift.Variance)
	return scanShift(row)
}

func (s *Store) GetOpenShiftForUser(ctx context.Context, storeID string, userID string) (*domain.Shift, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE store_id = $1 AND user_id = $2 AND status = 'open'
		ORDER BY start_time ASC
		LIMIT 1
	`, storeID, userID)
	return scanShift(row)
}

func (s *Store) GetOpenShiftForStation(ctx context.Context, storeID string, stationID string) (*domain.Shift, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE station_id = $2 AND status = 'open' AND store_id = $1
		ORDER BY start_time ASC
		LIMIT 1
	`, storeID, stationID)
	return scanShift(row)
}

func (s *Store) CountOpenShifts(ctx context.Context, storeID string, stationID string, r domain.DayRange) (int64, error) {
	var count int64
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM shifts
		WHERE store_id = $1
			AND ($2::text = '' OR station_id = $2)
			AND status = 'open'
			AND start_time >= $3 AND start_time < $4
	`, storeID, stationID, r.Start, r.End).Scan(&count)
	return count, err
}

func (s *Store) CountShiftsStarted(ctx context.Context, storeID string, r domain.DayRange) (int64, error) {
	var count int64
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM shifts
		WHERE store_id = $1 AND start_time >= $2 AND start_time < $3
	`, storeID, r.Start, r.End).Scan(&count)
	return count, err
}

func (s *Store) AggregateShifts(ctx context.Context, storeID string, stationID string, r domain.DayRange) (domain.ShiftAggregate, error) {
	var agg domain.ShiftAggregate
	err := s.q.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(initial_cash), 0),
			COUNT(*) FILTER (WHERE status = 'open'),
			COUNT(*) FILTER (WHERE status = 'closed')
		FROM shifts
		WHERE store_id = $1
			AND ($2::text = '' OR station_id = $2)
			AND start_time >= $3 AND start_time < $4
	`, storeID, stationID, r.Start, r.End).Scan(&agg.InitialCashSum, &agg.OpenCount, &agg.ClosedCount)
	return agg, err
}

func scanShift(row rowScanner) (*domain.Shift, error) {
	var shift domain.Shift
	var endTime sql.NullTime
	err := row.Scan(
		&shift.ID,
		&shift.Code,
		&shift.StoreID,
		&shift.StationID,
		&shift.UserID,
		&shift.StartTime,
		&endTime,
		&shift.InitialCash,
		&shift.FinalCash,
		&shift.TotalSales,
		&shift.Variance,
		&shift.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	shift.StartTime = shift.StartTime.UTC()
	shift.EndTime = timePtr(endTime)
	return &shift, nil
}
