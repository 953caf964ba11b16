package postgres

import (
	"context"
	"database/sql"
	"time"

	"tutupkas/backend/internal/domain"
)

func (s *Store) AggregateSales(ctx context.Context, storeID string, stationID string, r domain.DayRange) (domain.FlowAggregate, error) {
	return s.aggregateFlow(ctx, "sales", storeID, stationID, r)
}

func (s *Store) AggregatePurchases(ctx context.Context, storeID string, stationID string, r domain.DayRange) (domain.FlowAggregate, error) {
	return s.aggregateFlow(ctx, "purchases", storeID, stationID, r)
}

// aggregateFlow reads one of the fixed flow tables; table is never user input.
func (s *Store) aggregateFlow(ctx context.Context, table string, storeID string, stationID string, r domain.DayRange) (domain.FlowAggregate, error) {
	agg := domain.FlowAggregate{ByPaymentMethod: map[string]int64{}}
	rows, err := s.q.QueryContext(ctx, `
		SELECT payment_method,
			COALESCE(SUM(final_amount), 0),
			COALESCE(SUM(discount), 0),
			COALESCE(SUM(tax), 0),
			COUNT(*)
		FROM `+table+`
		WHERE store_id = $1
			AND ($2::text = '' OR station_id = $2)
			AND created_at >= $3 AND created_at < $4
		GROUP BY payment_method
	`, storeID, stationID, r.Start, r.End)
	if err != nil {
		return agg, err
	}
	defer rows.Close()

	for rows.Next() {
		var method string
		var total, discount, tax, count int64
		if err := rows.Scan(&method, &total, &discount, &tax, &count); err != nil {
			return agg, err
		}
		agg.ByPaymentMethod[method] += total
		agg.Total += total
		agg.Discount += discount
		agg.Tax += tax
		agg.Count += count
	}
	return agg, rows.Err()
}

func (s *Store) SumUserSales(ctx context.Context, storeID string, userID string, since time.Time) (int64, error) {
	var total int64
	err := s.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(final_amount), 0)
		FROM sales
		WHERE store_id = $1 AND user_id = $2 AND created_at >= $3
	`, storeID, userID, since).Scan(&total)
	return total, err
}

func (s *Store) SumSalesReturns(ctx context.Context, storeID string, stationID string, r domain.DayRange) (int64, error) {
	return s.sumReturns(ctx, "sales_returns", storeID, stationID, r)
}

func (s *Store) SumPurchaseReturns(ctx context.Context, storeID string, stationID string, r domain.DayRange) (int64, error) {
	return s.sumReturns(ctx, "purchase_returns", storeID, stationID, r)
}

func (s *Store) sumReturns(ctx context.Context, table string, storeID string, stationID string, r domain.DayRange) (int64, error) {
	var total int64
	err := s.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(final_amount), 0)
		FROM `+table+`
		WHERE store_id = $1
			AND ($2::text = '' OR station_id = $2)
			AND created_at >= $3 AND created_at < $4
	`, storeID, stationID, r.Start, r.End).Scan(&total)
	return total, err
}

func (s *Store) InvolvedStations(ctx context.Context, storeID string, r domain.DayRange) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT station_id FROM shifts WHERE store_id = $1 AND start_time >= $2 AND start_time < $3
		UNION
		SELECT station_id FROM sales WHERE store_id = $1 AND created_at >= $2 AND created_at < $3
		UNION
		SELECT station_id FROM purchases WHERE store_id = $1 AND created_at >= $2 AND created_at < $3
		UNION
		SELECT station_id FROM sales_returns WHERE store_id = $1 AND created_at >= $2 AND created_at < $3
		UNION
		SELECT station_id FROM purchase_returns WHERE store_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY 1
	`, storeID, r.Start, r.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0, 8)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

func (s *Store) LastStationActivityBefore(ctx context.Context, storeID string, stationID string, before time.Time) (*time.Time, error) {
	var latest sql.NullTime
	err := s.q.QueryRowContext(ctx, `
		SELECT MAX(at) FROM (
			SELECT MAX(start_time) AS at FROM shifts WHERE store_id = $1 AND station_id = $2 AND start_time < $3
			UNION ALL
			SELECT MAX(created_at) FROM sales WHERE store_id = $1 AND station_id = $2 AND created_at < $3
			UNION ALL
			SELECT MAX(created_at) FROM purchases WHERE store_id = $1 AND station_id = $2 AND created_at < $3
			UNION ALL
			SELECT MAX(created_at) FROM sales_returns WHERE store_id = $1 AND station_id = $2 AND created_at < $3
			UNION ALL
			SELECT MAX(created_at) FROM purchase_returns WHERE store_id = $1 AND station_id = $2 AND created_at < $3
		) activity
	`, storeID, stationID, before).Scan(&latest)
	if err != nil {
		return nil, err
	}
	return timePtr(latest), nil
}
