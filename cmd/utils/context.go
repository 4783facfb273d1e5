package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	"github.com/signaldesk/signaldesk-server/cmd/models"
)

type contextKey string

const userKey contextKey = "currentUser"

// Authenticator issues and validates stateless session tokens. Tokens carry
// the user's public identifier as subject and stay valid until expiry; there
// is no revocation list.
type Authenticator struct {
	db     *gorm.DB
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

func NewAuthenticator(db *gorm.DB, cfg *Config) *Authenticator {
	method := jwt.GetSigningMethod(cfg.JWTAlgorithm)
	if method == nil {
		method = jwt.SigningMethodHS256
	}
	return &Authenticator{
		db:     db,
		secret: []byte(cfg.JWTSecret),
		method: method,
		ttl:    time.Duration(cfg.TokenExpiryMinutes) * time.Minute,
	}
}

func (a *Authenticator) CreateToken(userID string) (string, error) {
	claims := &jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.ttl)),
	}
	token := jwt.NewWithClaims(a.method, claims)
	return token.SignedString(a.secret)
}

// Authenticate resolves a raw bearer token to the stored user. The subject
// must still exist; a token for a vanished account is rejected.
func (a *Authenticator) Authenticate(tokenString string) (*models.User, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != a.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("invalid token")
	}

	var user models.User
	if err := a.db.Where("user_id = ?", claims.Subject).First(&user).Error; err != nil {
		return nil, errors.New("user not found")
	}
	return &user, nil
}

func (a *Authenticator) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		user, err := a.Authenticate(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func CurrentUser(r *http.Request) (*models.User, error) {
	user, ok := r.Context().Value(userKey).(*models.User)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	return user, nil
}
