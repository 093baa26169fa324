package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

// SessionClaims is what a signed session token carries.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Username  string `json:"username"`
	jwt.StandardClaims
}

// GenerateToken creates a signed JWT for the given session. The token expires after duration.
func GenerateToken(secret []byte, session AuthSession, duration time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		SessionID: session.SessionID,
		Username:  session.Username,
		StandardClaims: jwt.StandardClaims{
			Subject:   session.UserID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(duration).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken validates a token string and returns its claims.
func ParseToken(secret []byte, tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.SessionID == "" || claims.Subject == "" {
		return nil, errors.New("token does not carry a session")
	}
	return claims, nil
}
