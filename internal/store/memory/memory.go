package memory

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tutupkas/backend/internal/domain"
	"tutupkas/backend/internal/logging"
	"tutupkas/backend/internal/store"
	"tutupkas/backend/internal/xid"
)

var _ store.Repository = (*Store)(nil)

const DefaultStoreID = "main-store"

type Store struct {
	// txMu serializes WithinTx callers so check-then-write sequences see a
	// consistent view.
	txMu sync.Mutex

	mu              sync.RWMutex
	stationsByID    map[string]domain.Station
	stationByPrint  map[string]string
	authorizations  map[string]domain.Authorization
	shiftsByID      map[string]domain.Shift
	shiftCodes      map[string]struct{}
	sales           []domain.SaleRecord
	purchases       []domain.PurchaseRecord
	salesReturns    []domain.ReturnRecord
	purchaseReturns []domain.ReturnRecord
	stationClosings map[string]domain.StationDailyClosing
	dailyClosings   map[string]domain.DailyClosing
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the dev/demo accounts. Credentials come from
// SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD, falling back to dev defaults.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		logging.Module("memory-store").Warn("using default dev credentials; set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"cashier", cashierPwd, domain.RoleCashier},
	} {
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  mustHash(u.password),
			Role:      u.role,
			StoreID:   DefaultStoreID,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

// seedAuthorizations creates the two step-up secrets for the default store.
func seedAuthorizations() map[string]domain.Authorization {
	now := time.Now().UTC()
	result := map[string]domain.Authorization{}
	for _, a := range []struct {
		name     string
		password string
	}{
		{domain.AuthorizationCloseShift, envOr("SEED_CLOSE_SHIFT_PASSWORD", "tutupshift123")},
		{domain.AuthorizationCloseDay, envOr("SEED_CLOSE_DAY_PASSWORD", "tutupharian123")},
	} {
		result[authKey(DefaultStoreID, a.name)] = domain.Authorization{
			ID:           xid.New("auth"),
			StoreID:      DefaultStoreID,
			Name:         a.name,
			PasswordHash: mustHash(a.password),
			CreatedAt:    now,
		}
	}
	return result
}

func mustHash(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logging.Logger().Fatalf("memory-store: failed to hash seed password: %v", err)
	}
	return string(hash)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func New() *Store {
	return &Store{
		stationsByID:    make(map[string]domain.Station),
		stationByPrint:  make(map[string]string),
		authorizations:  make(map[string]domain.Authorization),
		shiftsByID:      make(map[string]domain.Shift),
		shiftCodes:      make(map[string]struct{}),
		stationClosings: make(map[string]domain.StationDailyClosing),
		dailyClosings:   make(map[string]domain.DailyClosing),
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns a store with demo users and the close-shift and close-day
// authorizations for DefaultStoreID.
func NewSeeded() *Store {
	s := New()
	s.usersByUsername = seedUsers()
	s.authorizations = seedAuthorizations()
	return s
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Repository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(s)
}

// SetAuthorization stores a bcrypt hash under (storeID, name), replacing any previous one.
func (s *Store) SetAuthorization(storeID string, name string, passwordHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorizations[authKey(storeID, name)] = domain.Authorization{
		ID:           xid.New("auth"),
		StoreID:      storeID,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// RecordSale and the following recorders stand in for the transaction
// subsystems that own these rows in production.
func (s *Store) RecordSale(sale domain.SaleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	s.sales = append(s.sales, sale)
}

func (s *Store) RecordPurchase(purchase domain.PurchaseRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if purchase.ID == "" {
		purchase.ID = xid.New("purchase")
	}
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now().UTC()
	}
	s.purchases = append(s.purchases, purchase)
}

func (s *Store) RecordSalesReturn(ret domain.ReturnRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.salesReturns = append(s.salesReturns, stampReturn(ret, "sret"))
}

func (s *Store) RecordPurchaseReturn(ret domain.ReturnRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchaseReturns = append(s.purchaseReturns, stampReturn(ret, "pret"))
}

// PutShift inserts a shift as-is, bypassing open-shift rules. Used to stage history.
func (s *Store) PutShift(shift domain.Shift) domain.Shift {
	s.mu.Lock()
	defer s.mu.Unlock()
	if shift.ID == "" {
		shift.ID = xid.New("shift")
	}
	s.shiftsByID[shift.ID] = shift
	if shift.Code != "" {
		s.shiftCodes[shift.StoreID+"::"+shift.Code] = struct{}{}
	}
	return shift
}

func stampReturn(ret domain.ReturnRecord, prefix string) domain.ReturnRecord {
	if ret.ID == "" {
		ret.ID = xid.New(prefix)
	}
	if ret.CreatedAt.IsZero() {
		ret.CreatedAt = time.Now().UTC()
	}
	return ret
}

func (s *Store) CreateStation(_ context.Context, station domain.Station) (*domain.Station, error) {
	if strings.TrimSpace(station.StoreID) == "" || strings.TrimSpace(station.DeviceFingerprint) == "" {
		return nil, store.ErrInvalidTransaction
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stationByPrint[station.DeviceFingerprint]; exists {
		return nil, store.ErrDuplicate
	}
	if station.ID == "" {
		station.ID = xid.New("st")
	}
	if station.CreatedAt.IsZero() {
		station.CreatedAt = time.Now().UTC()
	}
	s.stationsByID[station.ID] = station
	s.stationByPrint[station.DeviceFingerprint] = station.ID
	copyStation := station
	return &copyStation, nil
}

func (s *Store) GetStationByID(_ context.Context, storeID string, stationID string) (*domain.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	station, ok := s.stationsByID[stationID]
	if !ok || station.StoreID != storeID {
		return nil, store.ErrNotFound
	}
	return &station, nil
}

func (s *Store) GetStationByFingerprint(_ context.Context, fingerprint string) (*domain.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.stationByPrint[fingerprint]
	if !ok {
		return nil, store.ErrNotFound
	}
	station := s.stationsByID[id]
	return &station, nil
}

func (s *Store) TouchStation(_ context.Context, stationID string, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	station, ok := s.stationsByID[stationID]
	if !ok {
		return store.ErrNotFound
	}
	seen := seenAt.UTC()
	station.LastSeenAt = &seen
	s.stationsByID[stationID] = station
	return nil
}

func (s *Store) ListStations(_ context.Context, storeID string) ([]domain.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Station, 0, len(s.stationsByID))
	for _, station := range s.stationsByID {
		if storeID != "" && station.StoreID != storeID {
			continue
		}
		result = append(result, station)
	}
	slices.SortFunc(result, func(a, b domain.Station) int {
		return strings.Compare(a.Name+a.ID, b.Name+b.ID)
	})
	return result, nil
}

func (s *Store) GetAuthorization(_ context.Context, storeID string, name string) (*domain.Authorization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auth, ok := s.authorizations[authKey(storeID, name)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &auth, nil
}

func (s *Store) CreateShift(_ context.Context, shift domain.Shift) (*domain.Shift, error) {
	if strings.TrimSpace(shift.StoreID) == "" || strings.TrimSpace(shift.StationID) == "" || strings.TrimSpace(shift.UserID) == "" {
		return nil, store.ErrInvalidTransaction
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	codeKey := shift.StoreID + "::" + shift.Code
	if _, exists := s.shiftCodes[codeKey]; exists {
		return nil, store.ErrDuplicate
	}
	if shift.ID == "" {
		shift.ID = xid.New("shift")
	}
	if shift.StartTime.IsZero() {
		shift.StartTime = time.Now().UTC()
	}
	shift.Status = domain.ShiftStatusOpen
	shift.EndTime = nil

	s.shiftsByID[shift.ID] = shift
	s.shiftCodes[codeKey] = struct{}{}
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) CloseShift(_ context.Context, shift domain.Shift) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.shiftsByID[shift.ID]
	if !exists || current.Status != domain.ShiftStatusOpen {
		return nil, store.ErrNotFound
	}
	endTime := time.Now().UTC()
	if shift.EndTime != nil {
		endTime = shift.EndTime.UTC()
	}
	current.Status = domain.ShiftStatusClosed
	current.EndTime = &endTime
	current.FinalCash = shift.FinalCash
	current.TotalSales = shift.TotalSales
	current.Variance = shift.Variance

	s.shiftsByID[current.ID] = current
	copyShift := current
	return &copyShift, nil
}

func (s *Store) GetOpenShiftForUser(_ context.Context, storeID string, userID string) (*domain.Shift, error) {
	return s.oldestOpenShift(func(sh domain.Shift) bool {
		return sh.StoreID == storeID && sh.UserID == userID
	})
}

func (s *Store) GetOpenShiftForStation(_ context.Context, storeID string, stationID string) (*domain.Shift, error) {
	return s.oldestOpenShift(func(sh domain.Shift) bool {
		return sh.StoreID == storeID && sh.StationID == stationID
	})
}

func (s *Store) oldestOpenShift(match func(domain.Shift) bool) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *domain.Shift
	for _, shift := range s.shiftsByID {
		if shift.Status != domain.ShiftStatusOpen || !match(shift) {
			continue
		}
		if found == nil || shift.StartTime.Before(found.StartTime) {
			copyShift := shift
			found = &copyShift
		}
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}

func (s *Store) CountOpenShifts(_ context.Context, storeID string, stationID string, r domain.DayRange) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, shift := range s.shiftsByID {
		if shift.Status == domain.ShiftStatusOpen && shiftInScope(shift, storeID, stationID, r) {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountShiftsStarted(_ context.Context, storeID string, r domain.DayRange) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, shift := range s.shiftsByID {
		if shiftInScope(shift, storeID, "", r) {
			count++
		}
	}
	return count, nil
}

func (s *Store) AggregateShifts(_ context.Context, storeID string, stationID string, r domain.DayRange) (domain.ShiftAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var agg domain.ShiftAggregate
	for _, shift := range s.shiftsByID {
		if !shiftInScope(shift, storeID, stationID, r) {
			continue
		}
		agg.InitialCashSum += shift.InitialCash
		switch shift.Status {
		case domain.ShiftStatusOpen:
			agg.OpenCount++
		case domain.ShiftStatusClosed:
			agg.ClosedCount++
		}
	}
	return agg, nil
}

func shiftInScope(shift domain.Shift, storeID string, stationID string, r domain.DayRange) bool {
	if shift.StoreID != storeID {
		return false
	}
	if stationID != "" && shift.StationID != stationID {
		return false
	}
	return r.Contains(shift.StartTime)
}

func (s *Store) AggregateSales(_ context.Context, storeID string, stationID string, r domain.DayRange) (domain.FlowAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg := domain.FlowAggregate{ByPaymentMethod: map[string]int64{}}
	for _, sale := range s.sales {
		if !recordInScope(sale.StoreID, sale.StationID, sale.CreatedAt, storeID, stationID, r) {
			continue
		}
		addFlow(&agg, sale.PaymentMethod, sale.FinalAmount, sale.Discount, sale.Tax)
	}
	return agg, nil
}

func (s *Store) SumUserSales(_ context.Context, storeID string, userID string, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, sale := range s.sales {
		if sale.StoreID != storeID || sale.UserID != userID || sale.CreatedAt.Before(since) {
			continue
		}
		total += sale.FinalAmount
	}
	return total, nil
}

func (s *Store) AggregatePurchases(_ context.Context, storeID string, stationID string, r domain.DayRange) (domain.FlowAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg := domain.FlowAggregate{ByPaymentMethod: map[string]int64{}}
	for _, purchase := range s.purchases {
		if !recordInScope(purchase.StoreID, purchase.StationID, purchase.CreatedAt, storeID, stationID, r) {
			continue
		}
		addFlow(&agg, purchase.PaymentMethod, purchase.FinalAmount, purchase.Discount, purchase.Tax)
	}
	return agg, nil
}

func addFlow(agg *domain.FlowAggregate, method string, amount int64, discount int64, tax int64) {
	agg.Total += amount
	agg.Discount += discount
	agg.Tax += tax
	agg.Count++
	agg.ByPaymentMethod[method] += amount
}

func (s *Store) SumSalesReturns(_ context.Context, storeID string, stationID string, r domain.DayRange) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sumReturns(s.salesReturns, storeID, stationID, r), nil
}

func (s *Store) SumPurchaseReturns(_ context.Context, storeID string, stationID string, r domain.DayRange) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sumReturns(s.purchaseReturns, storeID, stationID, r), nil
}

func sumReturns(rows []domain.ReturnRecord, storeID string, stationID string, r domain.DayRange) int64 {
	var total int64
	for _, ret := range rows {
		if recordInScope(ret.StoreID, ret.StationID, ret.CreatedAt, storeID, stationID, r) {
			total += ret.FinalAmount
		}
	}
	return total
}

func recordInScope(recStore string, recStation string, at time.Time, storeID string, stationID string, r domain.DayRange) bool {
	if recStore != storeID {
		return false
	}
	if stationID != "" && recStation != stationID {
		return false
	}
	return r.Contains(at)
}

func (s *Store) InvolvedStations(_ context.Context, storeID string, r domain.DayRange) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	add := func(recStore string, stationID string, at time.Time) {
		if stationID != "" && recStore == storeID && r.Contains(at) {
			seen[stationID] = struct{}{}
		}
	}
	for _, shift := range s.shiftsByID {
		add(shift.StoreID, shift.StationID, shift.StartTime)
	}
	for _, sale := range s.sales {
		add(sale.StoreID, sale.StationID, sale.CreatedAt)
	}
	for _, purchase := range s.purchases {
		add(purchase.StoreID, purchase.StationID, purchase.CreatedAt)
	}
	for _, ret := range s.salesReturns {
		add(ret.StoreID, ret.StationID, ret.CreatedAt)
	}
	for _, ret := range s.purchaseReturns {
		add(ret.StoreID, ret.StationID, ret.CreatedAt)
	}

	result := make([]string, 0, len(seen))
	for id := range seen {
		result = append(result, id)
	}
	slices.Sort(result)
	return result, nil
}

func (s *Store) LastStationActivityBefore(_ context.Context, storeID string, stationID string, before time.Time) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *time.Time
	consider := func(recStore string, recStation string, at time.Time) {
		if recStore != storeID || recStation != stationID || !at.Before(before) {
			return
		}
		if latest == nil || at.After(*latest) {
			t := at
			latest = &t
		}
	}
	for _, shift := range s.shiftsByID {
		consider(shift.StoreID, shift.StationID, shift.StartTime)
	}
	for _, sale := range s.sales {
		consider(sale.StoreID, sale.StationID, sale.CreatedAt)
	}
	for _, purchase := range s.purchases {
		consider(purchase.StoreID, purchase.StationID, purchase.CreatedAt)
	}
	for _, ret := range s.salesReturns {
		consider(ret.StoreID, ret.StationID, ret.CreatedAt)
	}
	for _, ret := range s.purchaseReturns {
		consider(ret.StoreID, ret.StationID, ret.CreatedAt)
	}
	return latest, nil
}

func (s *Store) CreateStationClosing(_ context.Context, closing domain.StationDailyClosing) (*domain.StationDailyClosing, error) {
	if closing.StoreID == "" || closing.StationID == "" || closing.BusinessDate == "" {
		return nil, store.ErrInvalidTransaction
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := stationClosingKey(closing.StoreID, closing.StationID, closing.BusinessDate)
	if _, exists := s.stationClosings[key]; exists {
		return nil, store.ErrDuplicate
	}
	if closing.ID == "" {
		closing.ID = xid.New("stc")
	}
	closing.Meta.Payments = cloneAmounts(closing.Meta.Payments)
	s.stationClosings[key] = closing
	copyClosing := closing
	copyClosing.Meta.Payments = cloneAmounts(closing.Meta.Payments)
	return &copyClosing, nil
}

func (s *Store) GetStationClosing(_ context.Context, storeID string, stationID string, businessDate string) (*domain.StationDailyClosing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	closing, ok := s.stationClosings[stationClosingKey(storeID, stationID, businessDate)]
	if !ok {
		return nil, store.ErrNotFound
	}
	closing.Meta.Payments = cloneAmounts(closing.Meta.Payments)
	return &closing, nil
}

func (s *Store) ListStationClosings(_ context.Context, storeID string, businessDate string) ([]domain.StationDailyClosing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StationDailyClosing, 0, 8)
	for _, closing := range s.stationClosings {
		if closing.StoreID != storeID || closing.BusinessDate != businessDate {
			continue
		}
		closing.Meta.Payments = cloneAmounts(closing.Meta.Payments)
		result = append(result, closing)
	}
	slices.SortFunc(result, func(a, b domain.StationDailyClosing) int {
		return strings.Compare(a.StationID, b.StationID)
	})
	return result, nil
}

func (s *Store) CreateDailyClosing(_ context.Context, closing domain.DailyClosing) (*domain.DailyClosing, error) {
	if closing.StoreID == "" || closing.BusinessDate == "" {
		return nil, store.ErrInvalidTransaction
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := dailyClosingKey(closing.StoreID, closing.BusinessDate)
	if _, exists := s.dailyClosings[key]; exists {
		return nil, store.ErrDuplicate
	}
	if closing.ID == "" {
		closing.ID = xid.New("dcl")
	}
	closing.Meta.Stations = slices.Clone(closing.Meta.Stations)
	s.dailyClosings[key] = closing
	copyClosing := closing
	copyClosing.Meta.Stations = slices.Clone(closing.Meta.Stations)
	return &copyClosing, nil
}

func (s *Store) GetDailyClosing(_ context.Context, storeID string, businessDate string) (*domain.DailyClosing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	closing, ok := s.dailyClosings[dailyClosingKey(storeID, businessDate)]
	if !ok {
		return nil, store.ErrNotFound
	}
	closing.Meta.Stations = slices.Clone(closing.Meta.Stations)
	return &closing, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if storeID != "" && entry.StoreID != storeID {
			continue
		}
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}

	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidTransaction
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrDuplicate
	}
	user.Username = username
	if user.Role == "" {
		user.Role = domain.RoleCashier
	}
	if user.StoreID == "" {
		user.StoreID = DefaultStoreID
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidTransaction
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func authKey(storeID string, name string) string {
	return storeID + "::" + strings.ToLower(strings.TrimSpace(name))
}

func stationClosingKey(storeID string, stationID string, businessDate string) string {
	return storeID + "::" + stationID + "::" + businessDate
}

func dailyClosingKey(storeID string, businessDate string) string {
	return storeID + "::" + businessDate
}

func cloneAmounts(src map[string]int64) map[string]int64 {
	if src == nil {
		return map[string]int64{}
	}
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
