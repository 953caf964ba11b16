package service

import (
	"context"
	"errors"

	"tutupkas/backend/internal/domain"
	"tutupkas/backend/internal/gate"
	"tutupkas/backend/internal/store"
)

// GateState collects what the shift gate needs for the calling station.
// Only the most recent earlier day with activity is checked for a missing
// closing.
func (s *Service) GateState(ctx context.Context, rc domain.RequestContext) (gate.State, error) {
	rc.StoreID = s.storeOf(rc)
	today := s.Today()
	state := gate.State{Today: today}

	open, err := s.repo.GetOpenShiftForStation(ctx, rc.StoreID, rc.StationID)
	switch {
	case err == nil:
		state.OpenShiftDate = s.businessDateOf(open.StartTime)
	case !errors.Is(err, store.ErrNotFound):
		return gate.State{}, err
	}

	r, err := s.DayRange(today)
	if err != nil {
		return gate.State{}, err
	}
	last, err := s.repo.LastStationActivityBefore(ctx, rc.StoreID, rc.StationID, r.Start)
	if err != nil {
		return gate.State{}, err
	}
	if last == nil {
		return state, nil
	}

	pending := s.businessDateOf(*last)
	closed, err := s.stationDateClosed(ctx, rc.StoreID, rc.StationID, pending)
	if err != nil {
		return gate.State{}, err
	}
	if !closed {
		state.PendingClosingDate = pending
	}
	return state, nil
}

// stationDateClosed reports whether the station closed the date or the
// store finalized it.
func (s *Service) stationDateClosed(ctx context.Context, storeID string, stationID string, businessDate string) (bool, error) {
	_, err := s.repo.GetStationClosing(ctx, storeID, stationID, businessDate)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	if err := ensureNotFinalized(ctx, s.repo, storeID, businessDate); err != nil {
		if errors.Is(err, domain.ErrAlreadyFinalized) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// Gate evaluates the shift gate for the calling station and route kind.
func (s *Service) Gate(ctx context.Context, rc domain.RequestContext, kind gate.RouteKind) (gate.Decision, error) {
	state, err := s.GateState(ctx, rc)
	if err != nil {
		return gate.Decision{}, err
	}
	return gate.Check(state, kind), nil
}
