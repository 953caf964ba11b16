package cache

import (
	"context"
	"sync"
	"time"

	"tutupkas/backend/internal/domain"
)

// StationCache memoizes fingerprint to station resolution.
type StationCache interface {
	Get(ctx context.Context, fingerprint string) (*domain.Station, bool, error)
	Set(ctx context.Context, station domain.Station, ttl time.Duration) error
	Delete(ctx context.Context, fingerprint string) error
}

// SessionStore tracks a per-user session version. Tokens minted under an
// older version are rejected, which is how a user is forced to log in again.
type SessionStore interface {
	Version(ctx context.Context, username string) (int64, error)
	Bump(ctx context.Context, username string) (int64, error)
}

type NoopStationCache struct{}

func (NoopStationCache) Get(_ context.Context, _ string) (*domain.Station, bool, error) {
	return nil, false, nil
}

func (NoopStationCache) Set(_ context.Context, _ domain.Station, _ time.Duration) error {
	return nil
}

func (NoopStationCache) Delete(_ context.Context, _ string) error {
	return nil
}

// MemorySessionStore is the single-process SessionStore.
type MemorySessionStore struct {
	mu       sync.Mutex
	versions map[string]int64
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{versions: make(map[string]int64)}
}

func (m *MemorySessionStore) Version(_ context.Context, username string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[username], nil
}

func (m *MemorySessionStore) Bump(_ context.Context, username string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[username]++
	return m.versions[username], nil
}

func stationKey(fingerprint string) string {
	return "station:fp:" + fingerprint
}

func sessionKey(username string) string {
	return "session:version:" + username
}
