// Package auth guards the admin API with a single bcrypt-checked operator
// account and HS256 bearer tokens.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
)

// A private key for context that only this package can access.
var adminCtxKey = &contextKey{"admin"}

type contextKey struct {
	name string
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	Email        string
	PasswordHash string
	Secret       []byte
	TTL          time.Duration
	Now          func() time.Time
}

func NewAuthenticator(email, passwordHash, secret string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Authenticator{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		Secret:       []byte(secret),
		TTL:          ttl,
		Now:          time.Now,
	}
}

// HashPassword is used by crowdctl to produce ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", appErrors.NewValidation("password", "must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login checks the operator credentials and returns a signed token.
func (a *Authenticator) Login(email, password string) (string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if a.Email == "" || a.PasswordHash == "" || email != a.Email {
		return "", time.Time{}, appErrors.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, appErrors.ErrUnauthorized
	}
	return a.Issue(email)
}

func (a *Authenticator) Issue(email string) (string, time.Time, error) {
	now := a.Now().UTC()
	exp := now.Add(a.TTL)
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (a *Authenticator) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrUnauthorized, err)
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token and packs the
// claims into the request context.
func Middleware(a *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
			if len(t) != 2 || !strings.EqualFold(t[0], "Bearer") {
				writeUnauthorized(w)
				return
			}
			claims, err := a.Verify(strings.TrimSpace(t[1]))
			if err != nil {
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), adminCtxKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"error":"unauthorized"}`))
}

// ForContext finds the admin claims. REQUIRES Middleware to have run.
func ForContext(ctx context.Context) *Claims {
	raw, _ := ctx.Value(adminCtxKey).(*Claims)
	return raw
}
