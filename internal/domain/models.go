package domain

import "time"

// RequestContext identifies who is acting, for which store, from which station.
// It is passed explicitly into every core operation.
type RequestContext struct {
	StoreID   string
	UserID    string
	StationID string
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	StoreID     string `json:"store_id"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username       string
	Role           string
	StoreID        string
	SessionVersion int64
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	StoreID   string
	Active    bool
	CreatedAt time.Time
}

type Station struct {
	ID                string     `json:"id"`
	StoreID           string     `json:"store_id"`
	DeviceFingerprint string     `json:"device_fingerprint"`
	Name              string     `json:"name"`
	Active            bool       `json:"active"`
	LastSeenAt        *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type StationRegisterRequest struct {
	DeviceFingerprint string `json:"device_fingerprint" validate:"required,max=128"`
	Name              string `json:"name" validate:"required,max=100"`
}

type StationResponse struct {
	Station Station `json:"station"`
}

type StationListResponse struct {
	Stations []Station `json:"stations"`
}

type Shift struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	StoreID     string     `json:"store_id"`
	StationID   string     `json:"station_id"`
	UserID      string     `json:"user_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	InitialCash int64      `json:"initial_cash"`
	FinalCash   int64      `json:"final_cash"`
	TotalSales  int64      `json:"total_sales"`
	Variance    int64      `json:"variance"`
	Status      string     `json:"status"`
}

type ShiftOpenRequest struct {
	InitialCash int64 `json:"initial_cash" validate:"gte=0"`
}

type ShiftCloseRequest struct {
	FinalCash    int64  `json:"final_cash" validate:"gte=0"`
	AuthPassword string `json:"auth_password" validate:"required,max=128"`
}

type ShiftResponse struct {
	Shift             Shift `json:"shift"`
	SessionTerminated bool  `json:"session_terminated,omitempty"`
}

// FlowAggregate is the read contract for sales and purchases over a day range.
type FlowAggregate struct {
	Total           int64
	Discount        int64
	Tax             int64
	Count           int64
	ByPaymentMethod map[string]int64
}

// ShiftAggregate summarizes the shifts of one station over a day range.
type ShiftAggregate struct {
	InitialCashSum int64
	OpenCount      int64
	ClosedCount    int64
}

// ReconcileInput is every external fact the reconciliation needs.
type ReconcileInput struct {
	Sales               FlowAggregate
	Purchases           FlowAggregate
	SalesReturnTotal    int64
	PurchaseReturnTotal int64
	Shifts              ShiftAggregate
}

type ReconciliationSummary struct {
	TotalSales          int64            `json:"total_sales"`
	TotalDiscount       int64            `json:"total_discount"`
	TotalTax            int64            `json:"total_tax"`
	SalesCount          int64            `json:"sales_count"`
	Payments            map[string]int64 `json:"payments"`
	CashSales           int64            `json:"cash_sales"`
	TotalSalesReturn    int64            `json:"total_sales_return"`
	TotalPurchase       int64            `json:"total_purchase"`
	CashPurchase        int64            `json:"cash_purchase"`
	TotalPurchaseReturn int64            `json:"total_purchase_return"`
	ShiftCount          int64            `json:"shift_count"`
	InitialCashSum      int64            `json:"initial_cash_sum"`
	ExpectedCash        int64            `json:"expected_cash"`
}

type StationClosingMeta struct {
	Payments        map[string]int64 `json:"payments"`
	CashSales       int64            `json:"cash_sales"`
	VariancePercent string           `json:"variance_percent"`
	VarianceClass   string           `json:"variance_class"`
}

type StationDailyClosing struct {
	ID                  string             `json:"id"`
	StoreID             string             `json:"store_id"`
	StationID           string             `json:"station_id"`
	BusinessDate        string             `json:"business_date"`
	CashCounted         int64              `json:"cash_counted"`
	ExpectedCash        int64              `json:"expected_cash"`
	Variance            int64              `json:"variance"`
	TotalSales          int64              `json:"total_sales"`
	TotalSalesReturn    int64              `json:"total_sales_return"`
	TotalPurchase       int64              `json:"total_purchase"`
	TotalPurchaseReturn int64              `json:"total_purchase_return"`
	TotalDiscount       int64              `json:"total_discount"`
	TotalTax            int64              `json:"total_tax"`
	SalesCount          int64              `json:"sales_count"`
	ShiftCount          int64              `json:"shift_count"`
	InitialCashSum      int64              `json:"initial_cash_sum"`
	CashSales           int64              `json:"cash_sales"`
	CashPurchase        int64              `json:"cash_purchase"`
	ClosedBy            string             `json:"closed_by"`
	ClosedAt            time.Time          `json:"closed_at"`
	Notes               string             `json:"notes,omitempty"`
	Meta                StationClosingMeta `json:"meta"`
}

type StationCloseRequest struct {
	BusinessDate string `json:"business_date" validate:"required,datetime=2006-01-02"`
	CashCounted  int64  `json:"cash_counted" validate:"gte=0"`
	AuthPassword string `json:"auth_password" validate:"required,max=128"`
	Notes        string `json:"notes" validate:"max=500"`
}

type StationClosingResponse struct {
	Closing StationDailyClosing `json:"closing"`
}

type StationClosingListResponse struct {
	BusinessDate string                `json:"business_date"`
	Closings     []StationDailyClosing `json:"closings"`
}

type StationPreviewResponse struct {
	StationID    string                `json:"station_id"`
	BusinessDate string                `json:"business_date"`
	Summary      ReconciliationSummary `json:"summary"`
}

// DailyClosingStation is one row of the per-station breakdown kept in DailyClosing.Meta.
type DailyClosingStation struct {
	StationID    string `json:"station_id"`
	ClosingID    string `json:"closing_id"`
	CashCounted  int64  `json:"cash_counted"`
	ExpectedCash int64  `json:"expected_cash"`
	Variance     int64  `json:"variance"`
	TotalSales   int64  `json:"total_sales"`
	SalesCount   int64  `json:"sales_count"`
	ClosedBy     string `json:"closed_by"`
}

type DailyClosingMeta struct {
	Stations        []DailyClosingStation `json:"stations"`
	VariancePercent string                `json:"variance_percent"`
	VarianceClass   string                `json:"variance_class"`
}

type DailyClosing struct {
	ID                  string           `json:"id"`
	StoreID             string           `json:"store_id"`
	BusinessDate        string           `json:"business_date"`
	CashCountedTotal    int64            `json:"cash_counted_total"`
	ExpectedCashTotal   int64            `json:"expected_cash_total"`
	VarianceTotal       int64            `json:"variance_total"`
	TotalSales          int64            `json:"total_sales"`
	TotalSalesReturn    int64            `json:"total_sales_return"`
	TotalPurchase       int64            `json:"total_purchase"`
	TotalPurchaseReturn int64            `json:"total_purchase_return"`
	TotalDiscount       int64            `json:"total_discount"`
	TotalTax            int64            `json:"total_tax"`
	SalesCount          int64            `json:"sales_count"`
	ShiftCount          int64            `json:"shift_count"`
	StationCount        int64            `json:"station_count"`
	FinalizedBy         string           `json:"finalized_by"`
	FinalizedAt         time.Time        `json:"finalized_at"`
	Notes               string           `json:"notes,omitempty"`
	Meta                DailyClosingMeta `json:"meta"`
}

type FinalizeRequest struct {
	BusinessDate string `json:"business_date" validate:"required,datetime=2006-01-02"`
	AuthPassword string `json:"auth_password" validate:"required,max=128"`
	Notes        string `json:"notes" validate:"max=500"`
}

type DailyClosingResponse struct {
	Closing DailyClosing `json:"closing"`
}

type ClosingStatus struct {
	StoreID          string   `json:"store_id"`
	BusinessDate     string   `json:"business_date"`
	State            string   `json:"state"`
	OpenShifts       int64    `json:"open_shifts"`
	InvolvedStations []string `json:"involved_stations"`
	ClosedStations   []string `json:"closed_stations"`
	PendingStations  []string `json:"pending_stations"`
}

// Authorization is a named step-up secret scoped to a store.
type Authorization struct {
	ID           string
	StoreID      string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// SaleRecord, PurchaseRecord and ReturnRecord mirror rows owned by the
// transaction subsystems. This module only aggregates them.
type SaleRecord struct {
	ID            string
	StoreID       string
	StationID     string
	UserID        string
	PaymentMethod string
	FinalAmount   int64
	Discount      int64
	Tax           int64
	CreatedAt     time.Time
}

type PurchaseRecord struct {
	ID            string
	StoreID       string
	StationID     string
	UserID        string
	PaymentMethod string
	FinalAmount   int64
	Discount      int64
	Tax           int64
	CreatedAt     time.Time
}

type ReturnRecord struct {
	ID          string
	StoreID     string
	StationID   string
	FinalAmount int64
	CreatedAt   time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	StoreID       string    `json:"store_id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

// DayRange is the half-open interval [Start, End) covering one local business date.
type DayRange struct {
	Start time.Time
	End   time.Time
}

func (r DayRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Shift-open uniqueness scopes.
const (
	ShiftScopeStoreDay = "store_day"
	ShiftScopeStation  = "station"
)

const (
	ShiftStatusOpen   = "open"
	ShiftStatusClosed = "closed"
)

const PaymentMethodCash = "cash"

const (
	AuthorizationCloseShift = "Tutup Shift"
	AuthorizationCloseDay   = "Tutup Harian"
)

const (
	ClosingStateOpen              = "OPEN"
	ClosingStateStationsClosing   = "STATIONS_CLOSING"
	ClosingStateAllStationsClosed = "ALL_STATIONS_CLOSED"
	ClosingStateFinalized         = "FINALIZED"
)

const (
	VarianceClassNormal   = "normal"
	VarianceClassWarning  = "warning"
	VarianceClassCritical = "critical"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

const BusinessDateLayout = "2006-01-02"
