package store

import (
	"context"
	"errors"
	"time"

	"tutupkas/backend/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrDuplicate          = errors.New("duplicate record")
	ErrConflict           = errors.New("concurrent write conflict")
)

// Repository is the persistence boundary of the closing core. Sales,
// purchases and returns are owned elsewhere and only aggregated here.
//
// A stationID of "" on the aggregate and count methods means store-wide.
type Repository interface {
	// WithinTx runs fn against a transactional view of the repository.
	// Postgres uses a serializable transaction; the memory store serializes
	// all transactional callers.
	WithinTx(ctx context.Context, fn func(tx Repository) error) error

	CreateStation(ctx context.Context, station domain.Station) (*domain.Station, error)
	GetStationByID(ctx context.Context, storeID string, stationID string) (*domain.Station, error)
	GetStationByFingerprint(ctx context.Context, fingerprint string) (*domain.Station, error)
	TouchStation(ctx context.Context, stationID string, seenAt time.Time) error
	ListStations(ctx context.Context, storeID string) ([]domain.Station, error)

	GetAuthorization(ctx context.Context, storeID string, name string) (*domain.Authorization, error)

	CreateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error)
	CloseShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error)
	GetOpenShiftForUser(ctx context.Context, storeID string, userID string) (*domain.Shift, error)
	GetOpenShiftForStation(ctx context.Context, storeID string, stationID string) (*domain.Shift, error)
	CountOpenShifts(ctx context.Context, storeID string, stationID string, r domain.DayRange) (int64, error)
	CountShiftsStarted(ctx context.Context, storeID string, r domain.DayRange) (int64, error)
	AggregateShifts(ctx context.Context, storeID string, stationID string, r domain.DayRange) (domain.ShiftAggregate, error)

	AggregateSales(ctx context.Context, storeID string, stationID string, r domain.DayRange) (domain.FlowAggregate, error)
	SumUserSales(ctx context.Context, storeID string, userID string, since time.Time) (int64, error)
	AggregatePurchases(ctx context.Context, storeID string, stationID string, r domain.DayRange) (domain.FlowAggregate, error)
	SumSalesReturns(ctx context.Context, storeID string, stationID string, r domain.DayRange) (int64, error)
	SumPurchaseReturns(ctx context.Context, storeID string, stationID string, r domain.DayRange) (int64, error)
	InvolvedStations(ctx context.Context, storeID string, r domain.DayRange) ([]string, error)
	LastStationActivityBefore(ctx context.Context, storeID string, stationID string, before time.Time) (*time.Time, error)

	CreateStationClosing(ctx context.Context, closing domain.StationDailyClosing) (*domain.StationDailyClosing, error)
	GetStationClosing(ctx context.Context, storeID string, stationID string, businessDate string) (*domain.StationDailyClosing, error)
	ListStationClosings(ctx context.Context, storeID string, businessDate string) ([]domain.StationDailyClosing, error)
	CreateDailyClosing(ctx context.Context, closing domain.DailyClosing) (*domain.DailyClosing, error)
	GetDailyClosing(ctx context.Context, storeID string, businessDate string) (*domain.DailyClosing, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
