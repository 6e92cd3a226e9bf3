// Package auth issues and verifies the HS256 access tokens handed to
// clients after sign-in.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the identity the token was issued to.
type Claims struct {
	jwt.RegisteredClaims
	IdentityID string `json:"identity_id"`
}

func GenerateToken(identityID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		IdentityID: identityID,
	})

	return token.SignedString(secretKey)
}

// GetIdentityIDFromToken verifies tokenString and returns its identity.
// An expired token yields common.ErrTokenExpired, anything else that does
// not verify yields common.ErrInvalidToken.
func GetIdentityIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return "", common.ErrTokenExpired
	}
	if err != nil || !token.Valid || claims.IdentityID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.IdentityID, nil
}
