package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateJWT signs an HS256 token carrying the user ID and email. The
// secret is passed explicitly; nothing reads the environment here.
func GenerateJWT(userID uint, email, secret string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   float64(userID),
		"email": email,
		"exp":   time.Now().Add(ttl).Unix(),
	})

	return token.SignedString([]byte(secret))
}
