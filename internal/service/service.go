package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"tutupkas/backend/internal/cache"
	"tutupkas/backend/internal/domain"
	"tutupkas/backend/internal/lock"
	"tutupkas/backend/internal/logging"
	"tutupkas/backend/internal/store"
	"tutupkas/backend/internal/xid"
)

var (
	ErrAdminRequired = errors.New("admin role required")
	// ErrClosingBusy is returned when another closer of the same store and
	// date holds the closing lock past the wait budget.
	ErrClosingBusy = errors.New("closing in progress for this business date")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	DefaultStoreID      string
	Location            *time.Location
	ShiftOpenScope      string
	StationAutoRegister bool
	StationCacheTTL     time.Duration
	ClosingLockTTL      time.Duration
	// Now is the clock; tests pin it.
	Now func() time.Time
}

type Deps struct {
	Repo     store.Repository
	Locker   lock.Locker
	Stations cache.StationCache
	Sessions cache.SessionStore
}

type Service struct {
	repo     store.Repository
	locker   lock.Locker
	stations cache.StationCache
	sessions cache.SessionStore
	opts     Options
}

func New(deps Deps, opts Options) *Service {
	if opts.DefaultStoreID == "" {
		opts.DefaultStoreID = "main-store"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.ShiftOpenScope != domain.ShiftScopeStation {
		opts.ShiftOpenScope = domain.ShiftScopeStoreDay
	}
	if opts.StationCacheTTL <= 0 {
		opts.StationCacheTTL = time.Minute
	}
	if opts.ClosingLockTTL <= 0 {
		opts.ClosingLockTTL = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewLocalLocker()
	}
	if deps.Stations == nil {
		deps.Stations = cache.NoopStationCache{}
	}
	if deps.Sessions == nil {
		deps.Sessions = cache.NewMemorySessionStore()
	}

	return &Service{
		repo:     deps.Repo,
		locker:   deps.Locker,
		stations: deps.Stations,
		sessions: deps.Sessions,
		opts:     opts,
	}
}

func (s *Service) DefaultStoreID() string {
	return s.opts.DefaultStoreID
}

func (s *Service) now() time.Time {
	return s.opts.Now().UTC()
}

// Today is the current business date in the configured timezone.
func (s *Service) Today() string {
	return s.businessDateOf(s.now())
}

func (s *Service) businessDateOf(t time.Time) string {
	return t.In(s.opts.Location).Format(domain.BusinessDateLayout)
}

// DayRange parses a business date and returns its local-day interval.
func (s *Service) DayRange(businessDate string) (domain.DayRange, error) {
	start, err := time.ParseInLocation(domain.BusinessDateLayout, strings.TrimSpace(businessDate), s.opts.Location)
	if err != nil {
		return domain.DayRange{}, domain.InvalidInput("business_date", "must be YYYY-MM-DD")
	}
	return domain.DayRange{Start: start.UTC(), End: start.AddDate(0, 0, 1).UTC()}, nil
}

// closableDate validates a business date that a closing may target: well
// formed and not in the future.
func (s *Service) closableDate(businessDate string) (string, domain.DayRange, error) {
	businessDate = strings.TrimSpace(businessDate)
	r, err := s.DayRange(businessDate)
	if err != nil {
		return "", domain.DayRange{}, err
	}
	if businessDate > s.Today() {
		return "", domain.DayRange{}, domain.InvalidInput("business_date", "cannot close a future business date")
	}
	return businessDate, r, nil
}

func (s *Service) storeOf(rc domain.RequestContext) string {
	if rc.StoreID == "" {
		return s.opts.DefaultStoreID
	}
	return rc.StoreID
}

// txAttempts bounds reruns of a transaction aborted by a serialization
// failure. A rerun repeats every check against committed rows.
const txAttempts = 3

// withinTx runs fn in a repository transaction, rerunning it on
// store.ErrConflict. The last conflict is returned when every attempt fails.
func (s *Service) withinTx(ctx context.Context, fn func(tx store.Repository) error) error {
	var err error
	for attempt := 1; attempt <= txAttempts; attempt++ {
		err = s.repo.WithinTx(ctx, fn)
		if !errors.Is(err, store.ErrConflict) || ctx.Err() != nil {
			return err
		}
		logging.Module("service").WithField("attempt", attempt).Warn("transaction conflict, retrying")
	}
	return err
}

// withClosingLock holds the store/date closing lock around fn.
func (s *Service) withClosingLock(ctx context.Context, storeID string, businessDate string, fn func() error) error {
	release, err := s.locker.Acquire(ctx, lock.ClosingKey(storeID, businessDate), s.opts.ClosingLockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			return ErrClosingBusy
		}
		return err
	}
	// Release on a fresh context so a cancelled request still frees the key.
	defer release(context.WithoutCancel(ctx))
	return fn()
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return ErrAdminRequired
	}
	return nil
}

func (s *Service) ListAuditLogs(ctx context.Context, storeID string, date string, limit int) ([]domain.AuditLog, error) {
	if storeID == "" {
		storeID = s.opts.DefaultStoreID
	}
	if limit < 1 {
		limit = 100
	}

	var r domain.DayRange
	if strings.TrimSpace(date) == "" {
		to := s.now()
		r = domain.DayRange{Start: to.Add(-24 * time.Hour), End: to.Add(time.Second)}
	} else {
		parsed, err := s.DayRange(date)
		if err != nil {
			return nil, err
		}
		r = parsed
	}

	return s.repo.ListAuditLogs(ctx, storeID, r.Start, r.End, limit)
}

func (s *Service) logAudit(ctx context.Context, storeID string, action string, entityType string, entityID string, detail string) {
	if storeID == "" {
		storeID = s.opts.DefaultStoreID
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		StoreID:       storeID,
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     s.now(),
	}); err != nil {
		logging.LogError("service", "logAudit", "write audit log", map[string]string{
			"action": action,
			"entity": entityType + "/" + entityID,
		}, err)
	}
}
