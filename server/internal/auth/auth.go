// Package auth gates the admin/read surface's mutating endpoints
// (source-weight updates, manual job triggers). There is no user table in
// this system — politicians are read-only records owned externally, and
// nobody "logs in" as one. Instead a single bcrypt-hashed admin API key,
// configured out of band, is exchanged for a short-lived JWT session
// token the same way the teacher's login flow issued one per user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid admin key")
)

// Service issues and validates admin session tokens.
type Service struct {
	jwtSecret   []byte
	adminKeyHash string
}

// NewService constructs the auth service. adminKeyHash is a bcrypt hash of
// the configured admin API key (empty makes Authenticate always fail;
// ValidateToken does not consult the hash).
func NewService(jwtSecret, adminKeyHash string) *Service {
	if jwtSecret == "" {
		jwtSecret = "development-secret-key-change-in-production"
	}
	return &Service{
		jwtSecret:    []byte(jwtSecret),
		adminKeyHash: adminKeyHash,
	}
}

// Authenticate checks candidateKey against the configured admin key hash
// and, on success, issues a 24h JWT session token.
func (s *Service) Authenticate(ctx context.Context, candidateKey string) (string, error) {
	if s.adminKeyHash == "" {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminKeyHash), []byte(candidateKey)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "admin",
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("generating admin session token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates a session token and reports whether it grants
// admin access.
func (s *Service) ValidateToken(tokenString string) (bool, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return false, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return false, errors.New("invalid token")
	}
	role, _ := claims["role"].(string)
	return role == "admin", nil
}

// HashAdminKey is a setup-time helper operators use once to turn a plain
// admin key into the bcrypt hash stored in configuration.
func HashAdminKey(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing admin key: %w", err)
	}
	return string(hashed), nil
}

type ctxKey string

const adminCtxKey ctxKey = "is_admin"

// WithAdmin returns a context marked as authenticated for admin access.
func WithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, adminCtxKey, true)
}

// IsAdmin reports whether ctx carries an admin authentication marker.
func IsAdmin(ctx context.Context) bool {
	ok, _ := ctx.Value(adminCtxKey).(bool)
	return ok
}
