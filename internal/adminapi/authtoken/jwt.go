// Package authtoken issues and validates the admin HTTP API's bearer
// tokens. The admin plane is a separate, optional control surface; its
// /auth/login handler checks the configured startup password
// (internal/authsecret) before asking this package to issue a token.
package authtoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the admin API's JWT payload: a registered claim set plus the
// operator role the admin handlers authorize against.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Service issues and validates HMAC-signed admin tokens.
type Service struct {
	secret     []byte
	issuer     string
	expiration time.Duration
}

// NewService returns a Service signing with secret (must be non-empty;
// without one configured, serve starts the admin API with its protected
// routes and /auth/login disabled).
func NewService(secret string, issuer string, expiration time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("authtoken: empty signing secret")
	}
	if expiration <= 0 {
		expiration = time.Hour
	}
	return &Service{secret: []byte(secret), issuer: issuer, expiration: expiration}, nil
}

// Issue mints a token for subject with the given role.
func (s *Service) Issue(subject, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
		Role: role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and verifies tokenStr, returning its claims.
func (s *Service) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("authtoken: unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("authtoken: invalid token")
	}
	return claims, nil
}
