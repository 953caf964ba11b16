package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"tutupkas/backend/internal/domain"
)

func NewRedisClient(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

type RedisStationCache struct {
	client *redis.Client
}

func NewRedisStationCache(client *redis.Client) *RedisStationCache {
	return &RedisStationCache{client: client}
}

func (c *RedisStationCache) Get(ctx context.Context, fingerprint string) (*domain.Station, bool, error) {
	val, err := c.client.Get(ctx, stationKey(fingerprint)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var station domain.Station
	if err := json.Unmarshal([]byte(val), &station); err != nil {
		return nil, false, err
	}
	return &station, true, nil
}

func (c *RedisStationCache) Set(ctx context.Context, station domain.Station, ttl time.Duration) error {
	payload, err := json.Marshal(station)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, stationKey(station.DeviceFingerprint), payload, ttl).Err()
}

func (c *RedisStationCache) Delete(ctx context.Context, fingerprint string) error {
	return c.client.Del(ctx, stationKey(fingerprint)).Err()
}

type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Version(ctx context.Context, username string) (int64, error) {
	val, err := s.client.Get(ctx, sessionKey(username)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

func (s *RedisSessionStore) Bump(ctx context.Context, username string) (int64, error) {
	return s.client.Incr(ctx, sessionKey(username)).Result()
}
