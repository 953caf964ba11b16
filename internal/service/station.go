package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tutupkas/backend/internal/domain"
	"tutupkas/backend/internal/logging"
	"tutupkas/backend/internal/store"
)

// ResolveStation maps a device fingerprint to its registered station.
// Unknown devices are NOT_REGISTERED unless auto-registration is enabled.
func (s *Service) ResolveStation(ctx context.Context, storeID string, fingerprint string) (domain.Station, error) {
	if storeID == "" {
		storeID = s.opts.DefaultStoreID
	}
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return domain.Station{}, domain.ErrNotRegistered
	}

	if cached, ok, err := s.stations.Get(ctx, fingerprint); err != nil {
		logging.LogError("service", "ResolveStation", "read station cache", fingerprint, err)
	} else if ok {
		return checkStation(*cached, storeID)
	}

	station, err := s.repo.GetStationByFingerprint(ctx, fingerprint)
	if errors.Is(err, store.ErrNotFound) {
		if !s.opts.StationAutoRegister {
			return domain.Station{}, domain.ErrNotRegistered
		}
		station, err = s.autoRegister(ctx, storeID, fingerprint)
	}
	if err != nil {
		return domain.Station{}, err
	}

	if err := s.repo.TouchStation(ctx, station.ID, s.now()); err != nil {
		logging.LogError("service", "ResolveStation", "touch last_seen_at", station.ID, err)
	} else {
		seen := s.now()
		station.LastSeenAt = &seen
	}
	if err := s.stations.Set(ctx, *station, s.opts.StationCacheTTL); err != nil {
		logging.LogError("service", "ResolveStation", "write station cache", station.ID, err)
	}

	return checkStation(*station, storeID)
}

func checkStation(station domain.Station, storeID string) (domain.Station, error) {
	if station.StoreID != storeID {
		return domain.Station{}, domain.ErrNotRegistered
	}
	if !station.Active {
		return domain.Station{}, domain.ErrStationInactive
	}
	return station, nil
}

func (s *Service) autoRegister(ctx context.Context, storeID string, fingerprint string) (*domain.Station, error) {
	created, err := s.repo.CreateStation(ctx, domain.Station{
		StoreID:           storeID,
		DeviceFingerprint: fingerprint,
		Name:              defaultStationName(fingerprint),
		Active:            true,
		CreatedAt:         s.now(),
	})
	if errors.Is(err, store.ErrDuplicate) {
		// Another request registered the same device first.
		return s.repo.GetStationByFingerprint(ctx, fingerprint)
	}
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, storeID, "station_auto_register", "station", created.ID, created.Name)
	return created, nil
}

func defaultStationName(fingerprint string) string {
	short := fingerprint
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("Station %s", strings.ToUpper(short))
}

func (s *Service) RegisterStation(ctx context.Context, storeID string, req domain.StationRegisterRequest) (domain.Station, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Station{}, err
	}
	if storeID == "" {
		storeID = s.opts.DefaultStoreID
	}
	req.DeviceFingerprint = strings.TrimSpace(req.DeviceFingerprint)
	req.Name = strings.TrimSpace(req.Name)
	if req.DeviceFingerprint == "" {
		return domain.Station{}, domain.InvalidInput("device_fingerprint", "is required")
	}
	if req.Name == "" {
		return domain.Station{}, domain.InvalidInput("name", "is required")
	}

	created, err := s.repo.CreateStation(ctx, domain.Station{
		StoreID:           storeID,
		DeviceFingerprint: req.DeviceFingerprint,
		Name:              req.Name,
		Active:            true,
		CreatedAt:         s.now(),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return domain.Station{}, domain.InvalidInput("device_fingerprint", "device already registered")
		}
		return domain.Station{}, err
	}
	if err := s.stations.Delete(ctx, created.DeviceFingerprint); err != nil {
		logging.LogError("service", "RegisterStation", "evict station cache", created.ID, err)
	}

	s.logAudit(ctx, storeID, "station_register", "station", created.ID, created.Name)
	return *created, nil
}

func (s *Service) ListStations(ctx context.Context, storeID string) ([]domain.Station, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if storeID == "" {
		storeID = s.opts.DefaultStoreID
	}
	return s.repo.ListStations(ctx, storeID)
}
