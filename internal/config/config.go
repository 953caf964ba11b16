package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tutupkas/backend/internal/domain"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	DatabaseURL            string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	StoreID                string
	AuthSecret             string
	AccessTokenTTLMinutes  int
	BusinessTimezone       string
	ShiftOpenScope         string
	StationAutoRegister    bool
	StationCacheTTLSeconds int
	ClosingLockTTLSeconds  int
	LogLevel               string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL := positiveInt("ACCESS_TOKEN_TTL_MINUTES", 480)

	scope := strings.ToLower(strings.TrimSpace(getEnv("SHIFT_OPEN_SCOPE", domain.ShiftScopeStoreDay)))
	if scope != domain.ShiftScopeStation {
		scope = domain.ShiftScopeStoreDay
	}
	autoRegister, err := strconv.ParseBool(getEnv("STATION_AUTO_REGISTER", "false"))
	if err != nil {
		autoRegister = false
	}

	cfg := Config{
		Port:                   getEnv("PORT", "8080"),
		AllowedOrigin:          getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                redisDB,
		StoreID:                getEnv("DEFAULT_STORE_ID", "main-store"),
		AuthSecret:             strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes:  tokenTTL,
		BusinessTimezone:       getEnv("BUSINESS_TIMEZONE", "Asia/Jakarta"),
		ShiftOpenScope:         scope,
		StationAutoRegister:    autoRegister,
		StationCacheTTLSeconds: positiveInt("STATION_CACHE_TTL_SECONDS", 60),
		ClosingLockTTLSeconds:  positiveInt("CLOSING_LOCK_TTL_SECONDS", 30),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location resolves BusinessTimezone; business dates are computed in it.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", c.BusinessTimezone, err)
	}
	return loc, nil
}

func (c Config) StationCacheTTL() time.Duration {
	return time.Duration(c.StationCacheTTLSeconds) * time.Second
}

func (c Config) ClosingLockTTL() time.Duration {
	return time.Duration(c.ClosingLockTTLSeconds) * time.Second
}

func positiveInt(key string, fallback int) int {
	val, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || val < 1 {
		return fallback
	}
	return val
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
