package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const verifyEmailType = "verify_email"

type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// GenerateEmailToken signs a verification link token for the user's current address.
func (m *TokenManager) GenerateEmailToken(userID, email string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   time.Now().Add(m.ttl).Unix(),
		"type":  verifyEmailType,
	})
	return t.SignedString(m.secret)
}

// ValidateEmailToken returns the user id and address the token was issued for.
func (m *TokenManager) ValidateEmailToken(tokenStr string) (string, string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid || claims["type"] != verifyEmailType {
		return "", "", errors.New("invalid token")
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		return "", "", errors.New("invalid token")
	}
	return sub, email, nil
}
