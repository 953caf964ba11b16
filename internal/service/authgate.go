package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tutupkas/backend/internal/domain"
	"tutupkas/backend/internal/store"
)

// VerifyAuthorization checks password against the named step-up secret of
// the store. Every failure, including an unknown name, is ErrBadAuth.
func (s *Service) VerifyAuthorization(ctx context.Context, storeID string, name string, password string) error {
	return verifyAuthorization(ctx, s.repo, storeID, name, password)
}

func verifyAuthorization(ctx context.Context, repo store.Repository, storeID string, name string, password string) error {
	if strings.TrimSpace(password) == "" {
		return domain.ErrBadAuth
	}
	auth, err := repo.GetAuthorization(ctx, storeID, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrBadAuth
		}
		return err
	}
	if !IsPasswordHash(auth.PasswordHash) {
		return domain.ErrBadAuth
	}
	if bcrypt.CompareHashAndPassword([]byte(auth.PasswordHash), []byte(password)) != nil {
		return domain.ErrBadAuth
	}
	return nil
}

// IsPasswordHash reports whether value looks like a bcrypt hash.
func IsPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
