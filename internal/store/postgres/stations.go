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

const stationColumns = `id, store_id, device_fingerprint, name, active, last_seen_at, created_at`

func (s *Store) CreateStation(ctx context.Context, station domain.Station) (*domain.Station, error) {
	if strings.TrimSpace(station.StoreID) == "" || strings.TrimSpace(station.DeviceFingerprint) == "" {
		return nil, store.ErrInvalidTransaction
	}
	if station.ID == "" {
		station.ID = xid.New("st")
	}
	if station.CreatedAt.IsZero() {
		station.CreatedAt = time.Now().UTC()
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO stations (id, store_id, device_fingerprint, name, active, last_seen_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, station.ID, station.StoreID, station.DeviceFingerprint, station.Name, station.Active, nullTime(station.LastSeenAt), station.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	saved := station
	return &saved, nil
}

func (s *Store) GetStationByID(ctx context.Context, storeID string, stationID string) (*domain.Station, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+stationColumns+` FROM stations WHERE store_id = $1 AND id = $2`, storeID, stationID)
	return scanStation(row)
}

func (s *Store) GetStationByFingerprint(ctx context.Context, fingerprint string) (*domain.Station, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+stationColumns+` FROM stations WHERE device_fingerprint = $1`, fingerprint)
	return scanStation(row)
}

func (s *Store) TouchStation(ctx context.Context, stationID string, seenAt time.Time) error {
	res, err := s.q.ExecContext(ctx, `UPDATE stations SET last_seen_at = $2 WHERE id = $1`, stationID, seenAt.UTC())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListStations(ctx context.Context, storeID string) ([]domain.Station, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+stationColumns+`
		FROM stations
		WHERE ($1::text = '' OR store_id = $1)
		ORDER BY name ASC, id ASC
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := make([]domain.Station, 0, 8)
	for rows.Next() {
		station, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, *station)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStation(row rowScanner) (*domain.Station, error) {
	var station domain.Station
	var lastSeen sql.NullTime
	err := row.Scan(
		&station.ID,
		&station.StoreID,
		&station.DeviceFingerprint,
		&station.Name,
		&station.Active,
		&lastSeen,
		&station.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	station.LastSeenAt = timePtr(lastSeen)
	station.CreatedAt = station.CreatedAt.UTC()
	return &station, nil
}

func (s *Store) GetAuthorization(ctx context.Context, storeID string, name string) (*domain.Authorization, error) {
	var auth domain.Authorization
	err := s.q.QueryRowContext(ctx, `
		SELECT id, store_id, name, password_hash, created_at
		FROM authorizations
		WHERE store_id = $1 AND lower(name) = lower($2)
	`, storeID, strings.TrimSpace(name)).Scan(&auth.ID, &auth.StoreID, &auth.Name, &auth.PasswordHash, &auth.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	auth.CreatedAt = auth.CreatedAt.UTC()
	return &auth, nil
}
