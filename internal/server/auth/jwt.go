// Package auth implements session token handling for the HTTP boundary.
// Sessions are stateless JWTs signed with HMAC-SHA256; the payload carries
// only the numeric user ID, never PII.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload for a session.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
}

var ErrTokenInvalid = errors.New("token is invalid")

// GenerateToken creates a signed session token for the given user ID,
// valid for the supplied duration.
func GenerateToken(userID int64, secret []byte, validity time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// GetUserIDFromToken verifies the token signature and expiry and returns
// the embedded user ID. Any parse or validation failure, including an
// unexpected signing method, yields ErrTokenInvalid.
func GetUserIDFromToken(tokenString string, secret []byte) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
	if err != nil || !token.Valid {
		return 0, ErrTokenInvalid
	}

	return claims.UserID, nil
}
