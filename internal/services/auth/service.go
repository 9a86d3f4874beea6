// Package auth implements operator login and credential management.
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/novachain/admin-backend/internal/domain/admin"
	"github.com/novachain/admin-backend/internal/errors"
	"github.com/novachain/admin-backend/internal/middleware"
	"github.com/novachain/admin-backend/internal/storage"
	"github.com/novachain/admin-backend/pkg/logger"
)

const minPasswordLength = 6

// Service authenticates operators and issues session tokens.
type Service struct {
	store  storage.AdminStore
	secret []byte
	ttl    time.Duration
	log    *logger.Logger
}

// NewService creates the auth service. Tokens are HS256-signed with secret
// and expire after ttl.
func NewService(store storage.AdminStore, secret []byte, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{store: store, secret: secret, ttl: ttl, log: log.Named("auth")}
}

// Login verifies the operator's credentials and returns a signed token. A
// missing account and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *admin.Admin, error) {
	a, err := s.store.GetAdmin(ctx, email)
	if err != nil {
		if err == storage.ErrNotFound {
			return "", nil, errors.InvalidCredentials()
		}
		return "", nil, errors.Internal("load admin", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		s.log.WithField("email", email).Warn("failed login attempt")
		return "", nil, errors.InvalidCredentials()
	}

	token, err := s.issueToken(a)
	if err != nil {
		return "", nil, errors.Internal("sign token", err)
	}

	s.log.WithField("email", email).WithField("role", string(a.Role)).Info("operator logged in")
	return token, a, nil
}

func (s *Service) issueToken(a *admin.Admin) (string, error) {
	now := time.Now()
	claims := &middleware.Claims{
		Email: a.Email,
		Role:  a.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ChangePassword rotates the calling operator's own password after verifying
// the current one.
func (s *Service) ChangePassword(ctx context.Context, email, current, next string) error {
	if len(next) < minPasswordLength {
		return errors.Validation("new password must be at least 6 characters").
			WithDetails("min_length", minPasswordLength)
	}

	a, err := s.store.GetAdmin(ctx, email)
	if err != nil {
		if err == storage.ErrNotFound {
			return errors.InvalidCredentials()
		}
		return errors.Internal("load admin", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(current)); err != nil {
		return errors.InvalidCredentials()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal("hash password", err)
	}
	if err := s.store.UpdateAdminPassword(ctx, email, string(hash)); err != nil {
		return errors.Internal("update password", err)
	}

	s.log.WithField("email", email).Info("operator password changed")
	return nil
}
