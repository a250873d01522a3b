// Package auth issues and validates the signed access tokens carried in
// the session cookie.
package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/peerpractice/server/internal/model"
)

// CookieName is the cookie the transport layer reads the token from.
const CookieName = "access_token"

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 15 * 24 * time.Hour

// Claims binds a token to one user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID model.UserID `json:"user_id"`
}

// NewToken signs an HS256 token for the user.
func NewToken(secret string, userID model.UserID) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
		},
		UserID: userID,
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a token string and returns the user id it carries.
func ParseToken(secret, tokenString string) (model.UserID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return model.NilUserID, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return model.NilUserID, fmt.Errorf("invalid token")
	}
	return claims.UserID, nil
}

// NewCookie wraps a signed token in the session cookie.
func NewCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(TokenTTL),
	}
}

// UserFromRequest extracts and validates the user id from the request's
// session cookie.
func UserFromRequest(secret string, r *http.Request) (model.UserID, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return model.NilUserID, fmt.Errorf("no access token: %w", err)
	}
	return ParseToken(secret, cookie.Value)
}
