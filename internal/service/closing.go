package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tutupkas/backend/internal/domain"
	"tutupkas/backend/internal/store"
	"tutupkas/backend/internal/xid"
)

// closingStation loads the station a closing targets and rejects unknown or
// deactivated ones.
func closingStation(ctx context.Context, repo store.Repository, storeID string, stationID string) (*domain.Station, error) {
	if strings.TrimSpace(stationID) == "" {
		return nil, domain.ErrNotRegistered
	}
	station, err := repo.GetStationByID(ctx, storeID, stationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrNotRegistered
		}
		return nil, err
	}
	if !station.Active {
		return nil, domain.ErrStationInactive
	}
	return station, nil
}

// CloseStation writes the end-of-day closing for the calling station. The
// checks and the insert share one transaction under the store/date lock;
// losing a race to another closer reports ALREADY_CLOSED.
func (s *Service) CloseStation(ctx context.Context, rc domain.RequestContext, req domain.StationCloseRequest) (domain.StationDailyClosing, error) {
	rc.StoreID = s.storeOf(rc)
	if req.CashCounted < 0 {
		return domain.StationDailyClosing{}, domain.InvalidInput("cash_counted", "must not be negative")
	}
	businessDate, r, err := s.closableDate(req.BusinessDate)
	if err != nil {
		return domain.StationDailyClosing{}, err
	}
	if _, err := closingStation(ctx, s.repo, rc.StoreID, rc.StationID); err != nil {
		return domain.StationDailyClosing{}, err
	}

	var saved *domain.StationDailyClosing
	err = s.withClosingLock(ctx, rc.StoreID, businessDate, func() error {
		return s.withinTx(ctx, func(tx store.Repository) error {
			if err := ensureNotFinalized(ctx, tx, rc.StoreID, businessDate); err != nil {
				return err
			}

			open, err := tx.CountOpenShifts(ctx, rc.StoreID, rc.StationID, r)
			if err != nil {
				return err
			}
			if open > 0 {
				return domain.OpenShiftExistsFor("business_date")
			}

			_, err = tx.GetStationClosing(ctx, rc.StoreID, rc.StationID, businessDate)
			if err == nil {
				return domain.ErrAlreadyClosed
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			if err := verifyAuthorization(ctx, tx, rc.StoreID, domain.AuthorizationCloseDay, req.AuthPassword); err != nil {
				return err
			}

			in, err := gatherReconcileInput(ctx, tx, rc.StoreID, rc.StationID, r)
			if err != nil {
				return err
			}

			closing := newStationClosing(rc, businessDate, req.CashCounted, strings.TrimSpace(req.Notes), Reconcile(in), s.now())
			saved, err = tx.CreateStationClosing(ctx, closing)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return domain.StationDailyClosing{}, domain.ErrAlreadyClosed
		}
		return domain.StationDailyClosing{}, err
	}

	s.logAudit(ctx, rc.StoreID, "station_close", "station_daily_closing", saved.ID, fmt.Sprintf("station=%s,date=%s,expected=%d,counted=%d,variance=%d", saved.StationID, saved.BusinessDate, saved.ExpectedCash, saved.CashCounted, saved.Variance))
	return *saved, nil
}

func ensureNotFinalized(ctx context.Context, repo store.Repository, storeID string, businessDate string) error {
	_, err := repo.GetDailyClosing(ctx, storeID, businessDate)
	if err == nil {
		return domain.ErrAlreadyFinalized
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func newStationClosing(rc domain.RequestContext, businessDate string, cashCounted int64, notes string, sum domain.ReconciliationSummary, closedAt time.Time) domain.StationDailyClosing {
	variance := cashCounted - sum.ExpectedCash
	pct, class := classifyVariance(variance, sum.ExpectedCash)

	return domain.StationDailyClosing{
		ID:                  xid.New("sclose"),
		StoreID:             rc.StoreID,
		StationID:           rc.StationID,
		BusinessDate:        businessDate,
		CashCounted:         cashCounted,
		ExpectedCash:        sum.ExpectedCash,
		Variance:            variance,
		TotalSales:          sum.TotalSales,
		TotalSalesReturn:    sum.TotalSalesReturn,
		TotalPurchase:       sum.TotalPurchase,
		TotalPurchaseReturn: sum.TotalPurchaseReturn,
		TotalDiscount:       sum.TotalDiscount,
		TotalTax:            sum.TotalTax,
		SalesCount:          sum.SalesCount,
		ShiftCount:          sum.ShiftCount,
		InitialCashSum:      sum.InitialCashSum,
		CashSales:           sum.CashSales,
		CashPurchase:        sum.CashPurchase,
		ClosedBy:            rc.UserID,
		ClosedAt:            closedAt,
		Notes:               notes,
		Meta: domain.StationClosingMeta{
			Payments:        sum.Payments,
			CashSales:       sum.CashSales,
			VariancePercent: pct,
			VarianceClass:   class,
		},
	}
}

// PreviewStation reconciles the calling station for a date without writing.
func (s *Service) PreviewStation(ctx context.Context, rc domain.RequestContext, businessDate string) (domain.StationPreviewResponse, error) {
	rc.StoreID = s.storeOf(rc)
	businessDate = strings.TrimSpace(businessDate)
	if businessDate == "" {
		businessDate = s.Today()
	}
	r, err := s.DayRange(businessDate)
	if err != nil {
		return domain.StationPreviewResponse{}, err
	}
	if _, err := closingStation(ctx, s.repo, rc.StoreID, rc.StationID); err != nil {
		return domain.StationPreviewResponse{}, err
	}

	in, err := gatherReconcileInput(ctx, s.repo, rc.StoreID, rc.StationID, r)
	if err != nil {
		return domain.StationPreviewResponse{}, err
	}
	return domain.StationPreviewResponse{
		StationID:    rc.StationID,
		BusinessDate: businessDate,
		Summary:      Reconcile(in),
	}, nil
}

func (s *Service) ListStationClosings(ctx context.Context, storeID string, businessDate string) ([]domain.StationDailyClosing, error) {
	if storeID == "" {
		storeID = s.opts.DefaultStoreID
	}
	if _, err := s.DayRange(businessDate); err != nil {
		return nil, err
	}
	return s.repo.ListStationClosings(ctx, storeID, strings.TrimSpace(businessDate))
}
