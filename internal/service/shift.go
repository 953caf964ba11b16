package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tutupkas/backend/internal/domain"
	"tutupkas/backend/internal/logging"
	"tutupkas/backend/internal/store"
	"tutupkas/backend/internal/xid"
)

func validateShiftContext(rc domain.RequestContext) error {
	if strings.TrimSpace(rc.StationID) == "" {
		return domain.InvalidInput("station_id", "is required")
	}
	if strings.TrimSpace(rc.UserID) == "" {
		return domain.InvalidInput("user_id", "is required")
	}
	return nil
}

// OpenShift starts a shift for the calling user on the calling station.
func (s *Service) OpenShift(ctx context.Context, rc domain.RequestContext, initialCash int64) (domain.Shift, error) {
	rc.StoreID = s.storeOf(rc)
	if err := validateShiftContext(rc); err != nil {
		return domain.Shift{}, err
	}
	if initialCash < 0 {
		return domain.Shift{}, domain.InvalidInput("initial_cash", "must not be negative")
	}

	now := s.now()
	today := s.businessDateOf(now)
	r, err := s.DayRange(today)
	if err != nil {
		return domain.Shift{}, err
	}

	var saved *domain.Shift
	err = s.withinTx(ctx, func(tx store.Repository) error {
		if err := s.ensureDayStillOpen(ctx, tx, rc, today); err != nil {
			return err
		}
		if err := s.ensureNoOpenShift(ctx, tx, rc, r); err != nil {
			return err
		}

		started, err := tx.CountShiftsStarted(ctx, rc.StoreID, r)
		if err != nil {
			return err
		}

		saved, err = tx.CreateShift(ctx, newShift(rc, initialCash, now, r.Start.In(s.opts.Location), started+1))
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return domain.Shift{}, domain.ErrOpenShiftExists
		}
		return domain.Shift{}, err
	}

	s.logAudit(ctx, rc.StoreID, "shift_open", "shift", saved.ID, fmt.Sprintf("code=%s,station=%s,initial_cash=%d", saved.Code, saved.StationID, saved.InitialCash))
	return *saved, nil
}

// ensureNoOpenShift applies the configured uniqueness scope. store_day
// rejects when any shift of the store started today is still open; station
// rejects when the station has any open shift at all.
func (s *Service) ensureNoOpenShift(ctx context.Context, tx store.Repository, rc domain.RequestContext, today domain.DayRange) error {
	if s.opts.ShiftOpenScope == domain.ShiftScopeStation {
		_, err := tx.GetOpenShiftForStation(ctx, rc.StoreID, rc.StationID)
		if err == nil {
			return domain.ErrOpenShiftExists
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return nil
	}

	open, err := tx.CountOpenShifts(ctx, rc.StoreID, "", today)
	if err != nil {
		return err
	}
	if open > 0 {
		return domain.ErrOpenShiftExists
	}
	return nil
}

// ensureDayStillOpen rejects a new shift on a business date the station has
// already closed or the store has already finalized.
func (s *Service) ensureDayStillOpen(ctx context.Context, tx store.Repository, rc domain.RequestContext, businessDate string) error {
	if err := ensureNotFinalized(ctx, tx, rc.StoreID, businessDate); err != nil {
		return err
	}
	_, err := tx.GetStationClosing(ctx, rc.StoreID, rc.StationID, businessDate)
	if err == nil {
		return domain.ErrAlreadyClosed
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

func newShift(rc domain.RequestContext, initialCash int64, now time.Time, localDay time.Time, seq int64) domain.Shift {
	return domain.Shift{
		ID:          xid.New("shift"),
		Code:        xid.ShiftCode(localDay, seq),
		StoreID:     rc.StoreID,
		StationID:   rc.StationID,
		UserID:      rc.UserID,
		StartTime:   now,
		InitialCash: initialCash,
		Status:      domain.ShiftStatusOpen,
	}
}

// CloseShift closes the calling user's open shift after the close-shift
// secret is verified, then ends every session of that user.
func (s *Service) CloseShift(ctx context.Context, rc domain.RequestContext, finalCash int64, authPassword string) (domain.ShiftResponse, error) {
	rc.StoreID = s.storeOf(rc)
	if strings.TrimSpace(rc.UserID) == "" {
		return domain.ShiftResponse{}, domain.InvalidInput("user_id", "is required")
	}
	if finalCash < 0 {
		return domain.ShiftResponse{}, domain.InvalidInput("final_cash", "must not be negative")
	}
	if err := verifyAuthorization(ctx, s.repo, rc.StoreID, domain.AuthorizationCloseShift, authPassword); err != nil {
		return domain.ShiftResponse{}, err
	}

	var closed *domain.Shift
	err := s.withinTx(ctx, func(tx store.Repository) error {
		active, err := tx.GetOpenShiftForUser(ctx, rc.StoreID, rc.UserID)
		if err != nil {
			return err
		}

		totalSales, err := tx.SumUserSales(ctx, rc.StoreID, rc.UserID, active.StartTime)
		if err != nil {
			return err
		}

		endTime := s.now()
		active.FinalCash = finalCash
		active.TotalSales = totalSales
		active.Variance = shiftVariance(finalCash, active.InitialCash, totalSales)
		active.EndTime = &endTime

		closed, err = tx.CloseShift(ctx, *active)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ShiftResponse{}, domain.ErrNoActiveShift
		}
		return domain.ShiftResponse{}, err
	}

	s.logAudit(ctx, rc.StoreID, "shift_close", "shift", closed.ID, fmt.Sprintf("final_cash=%d,total_sales=%d,variance=%d", closed.FinalCash, closed.TotalSales, closed.Variance))

	terminated := true
	if err := s.TerminateSessions(ctx, rc.UserID); err != nil {
		terminated = false
		logging.LogError("service", "CloseShift", "terminate sessions", rc.UserID, err)
	}

	return domain.ShiftResponse{Shift: *closed, SessionTerminated: terminated}, nil
}

// shiftVariance is counted cash minus what the drawer should hold.
func shiftVariance(finalCash int64, initialCash int64, totalSales int64) int64 {
	return finalCash - (initialCash + totalSales)
}

// TerminateSessions invalidates every token issued to the user so far.
func (s *Service) TerminateSessions(ctx context.Context, username string) error {
	_, err := s.sessions.Bump(ctx, username)
	return err
}

// ActiveShift returns the calling user's open shift.
func (s *Service) ActiveShift(ctx context.Context, rc domain.RequestContext) (domain.Shift, error) {
	rc.StoreID = s.storeOf(rc)
	shift, err := s.repo.GetOpenShiftForUser(ctx, rc.StoreID, rc.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Shift{}, domain.ErrNoActiveShift
		}
		return domain.Shift{}, err
	}
	return *shift, nil
}
