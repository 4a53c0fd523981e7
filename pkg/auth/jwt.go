// Package auth implements the admin session manager: signed, time-bound
// bearer tokens that snapshot a user's permissions at login. Verification
// is stateless; the store is never consulted after issuance.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rsmedika/consent-api/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload embedded in a session token. The permission
// snapshot is authoritative for the token's lifetime even if the user's
// stored permissions change.
type Claims struct {
	Username    string              `json:"username"`
	Role        model.Role          `json:"role"`
	Permissions model.PermissionSet `json:"permissions"`
	jwt.RegisteredClaims
}

// SessionUser returns the payload in the shape used by login responses.
func (c *Claims) SessionUser() model.SessionUser {
	return model.SessionUser{
		Username:    c.Username,
		Role:        c.Role,
		Permissions: c.Permissions,
	}
}

type JWTService interface {
	GenerateToken(user *model.User) (string, error)
	ValidateToken(token string) (*Claims, error)
}

type jwtService struct {
	secret []byte
	expiry time.Duration
}

func NewJWTService(secret string, expiry time.Duration) JWTService {
	return &jwtService{secret: []byte(secret), expiry: expiry}
}

func (s *jwtService) GenerateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Username:    user.Username,
		Role:        user.Role,
		Permissions: user.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateToken fails closed: malformed, expired, or wrongly signed tokens
// all come back as ErrInvalidToken.
func (s *jwtService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
