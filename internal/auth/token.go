package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenManager signs and validates session cookies.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// TTL returns how long issued tokens stay valid.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Claims describes the cookie payload: the session id travels as jti and
// the username as sub.
type Claims struct {
	jwt.RegisteredClaims
}

// SessionID returns the server-side session the token refers to.
func (c *Claims) SessionID() string {
	return c.ID
}

// Username returns the account the token was issued for.
func (c *Claims) Username() string {
	return c.Subject
}

// GenerateToken builds and signs a token for the session.
func (tm *TokenManager) GenerateToken(sessionID, username string, issuedAt time.Time) (string, time.Time, error) {
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, errors.New("token missing session or subject")
	}
	return claims, nil
}
