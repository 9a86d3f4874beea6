// Package middleware provides HTTP middleware for the admin backend.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/novachain/admin-backend/internal/domain/admin"
	"github.com/novachain/admin-backend/internal/errors"
	"github.com/novachain/admin-backend/internal/httputil"
	"github.com/novachain/admin-backend/pkg/logger"
)

type contextKey string

const claimsKey contextKey = "admin_claims"

// Claims are the JWT claims issued to operators.
type Claims struct {
	Email string     `json:"email"`
	Role  admin.Role `json:"role"`
	jwt.RegisteredClaims
}

// ClaimsFromContext returns the authenticated operator's claims, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}

// WithClaims returns a context carrying the operator's claims. Exposed for
// handler tests.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// AuthMiddleware validates bearer tokens and attaches operator claims to the
// request context.
type AuthMiddleware struct {
	secret []byte
	log    *logger.Logger
}

// NewAuthMiddleware creates an authentication middleware verifying HS256
// tokens signed with secret.
func NewAuthMiddleware(secret []byte, log *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{secret: secret, log: log.Named("auth")}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteError(w, errors.Unauthorized("missing Authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteError(w, errors.Unauthorized("invalid Authorization header format"))
			return
		}

		claims, err := m.validateToken(parts[1])
		if err != nil {
			m.log.WithError(err).WithField("path", r.URL.Path).Warn("token validation failed")
			httputil.WriteError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func (m *AuthMiddleware) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.InvalidToken(nil).WithDetails("method", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.InvalidToken(err)
	}
	if !token.Valid {
		return nil, errors.InvalidToken(nil)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.InvalidToken(nil).WithDetails("reason", "invalid claims type")
	}
	if !claims.Role.Valid() {
		return nil, errors.InvalidToken(nil).WithDetails("reason", "unknown role")
	}
	return claims, nil
}

// RequireCapability gates a route on the operator's role granting cap.
func RequireCapability(cap admin.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				httputil.WriteError(w, errors.Unauthorized("authentication required"))
				return
			}
			if !claims.Role.Can(cap) {
				httputil.WriteError(w, errors.Forbidden("insufficient privileges"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
