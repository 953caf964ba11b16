package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"tutupkas/backend/internal/domain"
	"tutupkas/backend/internal/store"
	"tutupkas/backend/internal/xid"
)

// InvolvedStations lists every station with a shift, sale, purchase or
// return inside r.
func (s *Service) InvolvedStations(ctx context.Context, storeID string, r domain.DayRange) ([]string, error) {
	if storeID == "" {
		storeID = s.opts.DefaultStoreID
	}
	return s.repo.InvolvedStations(ctx, storeID, r)
}

// Finalize seals the store's business date once every involved station has
// closed. Losing a race to another finalizer reports ALREADY_FINALIZED.
func (s *Service) Finalize(ctx context.Context, rc domain.RequestContext, req domain.FinalizeRequest) (domain.DailyClosing, error) {
	rc.StoreID = s.storeOf(rc)
	businessDate, r, err := s.closableDate(req.BusinessDate)
	if err != nil {
		return domain.DailyClosing{}, err
	}
	if err := verifyAuthorization(ctx, s.repo, rc.StoreID, domain.AuthorizationCloseDay, req.AuthPassword); err != nil {
		return domain.DailyClosing{}, err
	}

	var saved *domain.DailyClosing
	err = s.withClosingLock(ctx, rc.StoreID, businessDate, func() error {
		return s.withinTx(ctx, func(tx store.Repository) error {
			if err := ensureNotFinalized(ctx, tx, rc.StoreID, businessDate); err != nil {
				return err
			}

			open, err := tx.CountOpenShifts(ctx, rc.StoreID, "", r)
			if err != nil {
				return err
			}
			if open > 0 {
				return domain.OpenShiftExistsFor("business_date")
			}

			involved, err := tx.InvolvedStations(ctx, rc.StoreID, r)
			if err != nil {
				return err
			}
			closings, err := tx.ListStationClosings(ctx, rc.StoreID, businessDate)
			if err != nil {
				return err
			}
			if missing := pendingStations(involved, closings); len(missing) > 0 {
				return domain.StationsIncomplete(missing)
			}

			saved, err = tx.CreateDailyClosing(ctx, newDailyClosing(rc, businessDate, strings.TrimSpace(req.Notes), closings, s.now()))
			return err
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return domain.DailyClosing{}, domain.ErrAlreadyFinalized
		}
		return domain.DailyClosing{}, err
	}

	s.logAudit(ctx, rc.StoreID, "daily_finalize", "daily_closing", saved.ID, fmt.Sprintf("date=%s,stations=%d,expected=%d,counted=%d,variance=%d", saved.BusinessDate, saved.StationCount, saved.ExpectedCashTotal, saved.CashCountedTotal, saved.VarianceTotal))
	return *saved, nil
}

// pendingStations returns the involved stations without a closing, sorted.
func pendingStations(involved []string, closings []domain.StationDailyClosing) []string {
	closed := make(map[string]struct{}, len(closings))
	for _, c := range closings {
		closed[c.StationID] = struct{}{}
	}

	missing := make([]string, 0)
	for _, stationID := range involved {
		if _, ok := closed[stationID]; !ok {
			missing = append(missing, stationID)
		}
	}
	sort.Strings(missing)
	return missing
}

// newDailyClosing sums every station closing of the date, including
// stations that closed without activity.
func newDailyClosing(rc domain.RequestContext, businessDate string, notes string, closings []domain.StationDailyClosing, finalizedAt time.Time) domain.DailyClosing {
	daily := domain.DailyClosing{
		ID:           xid.New("dclose"),
		StoreID:      rc.StoreID,
		BusinessDate: businessDate,
		StationCount: int64(len(closings)),
		FinalizedBy:  rc.UserID,
		FinalizedAt:  finalizedAt,
		Notes:        notes,
		Meta: domain.DailyClosingMeta{
			Stations: make([]domain.DailyClosingStation, 0, len(closings)),
		},
	}

	for _, c := range closings {
		daily.CashCountedTotal += c.CashCounted
		daily.ExpectedCashTotal += c.ExpectedCash
		daily.VarianceTotal += c.Variance
		daily.TotalSales += c.TotalSales
		daily.TotalSalesReturn += c.TotalSalesReturn
		daily.TotalPurchase += c.TotalPurchase
		daily.TotalPurchaseReturn += c.TotalPurchaseReturn
		daily.TotalDiscount += c.TotalDiscount
		daily.TotalTax += c.TotalTax
		daily.SalesCount += c.SalesCount
		daily.ShiftCount += c.ShiftCount

		daily.Meta.Stations = append(daily.Meta.Stations, domain.DailyClosingStation{
			StationID:    c.StationID,
			ClosingID:    c.ID,
			CashCounted:  c.CashCounted,
			ExpectedCash: c.ExpectedCash,
			Variance:     c.Variance,
			TotalSales:   c.TotalSales,
			SalesCount:   c.SalesCount,
			ClosedBy:     c.ClosedBy,
		})
	}

	daily.Meta.VariancePercent, daily.Meta.VarianceClass = classifyVariance(daily.VarianceTotal, daily.ExpectedCashTotal)
	return daily
}

func (s *Service) GetDailyClosing(ctx context.Context, storeID string, businessDate string) (domain.DailyClosing, error) {
	if storeID == "" {
		storeID = s.opts.DefaultStoreID
	}
	if _, err := s.DayRange(businessDate); err != nil {
		return domain.DailyClosing{}, err
	}
	closing, err := s.repo.GetDailyClosing(ctx, storeID, strings.TrimSpace(businessDate))
	if err != nil {
		return domain.DailyClosing{}, err
	}
	return *closing, nil
}

// ClosingStatus reports where a business date sits in the closing flow.
func (s *Service) ClosingStatus(ctx context.Context, storeID string, businessDate string) (domain.ClosingStatus, error) {
	if storeID == "" {
		storeID = s.opts.DefaultStoreID
	}
	businessDate = strings.TrimSpace(businessDate)
	if businessDate == "" {
		businessDate = s.Today()
	}
	r, err := s.DayRange(businessDate)
	if err != nil {
		return domain.ClosingStatus{}, err
	}

	open, err := s.repo.CountOpenShifts(ctx, storeID, "", r)
	if err != nil {
		return domain.ClosingStatus{}, err
	}
	involved, err := s.repo.InvolvedStations(ctx, storeID, r)
	if err != nil {
		return domain.ClosingStatus{}, err
	}
	closings, err := s.repo.ListStationClosings(ctx, storeID, businessDate)
	if err != nil {
		return domain.ClosingStatus{}, err
	}

	closed := make([]string, 0, len(closings))
	for _, c := range closings {
		closed = append(closed, c.StationID)
	}
	sort.Strings(closed)

	status := domain.ClosingStatus{
		StoreID:          storeID,
		BusinessDate:     businessDate,
		OpenShifts:       open,
		InvolvedStations: append(make([]string, 0, len(involved)), involved...),
		ClosedStations:   closed,
		PendingStations:  pendingStations(involved, closings),
	}

	_, err = s.repo.GetDailyClosing(ctx, storeID, businessDate)
	switch {
	case err == nil:
		status.State = domain.ClosingStateFinalized
	case !errors.Is(err, store.ErrNotFound):
		return domain.ClosingStatus{}, err
	case len(closings) == 0:
		status.State = domain.ClosingStateOpen
	case len(status.PendingStations) == 0 && open == 0:
		status.State = domain.ClosingStateAllStationsClosed
	default:
		status.State = domain.ClosingStateStationsClosing
	}
	return status, nil
}
