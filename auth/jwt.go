package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("token invalid")

type Claims struct {
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// GenerateAccessToken signs a token for uid. Bumping the account's token
// version invalidates it.
func (i *TokenIssuer) GenerateAccessToken(uid string, tokenVersion uint64) (string, error) {
	now := time.Now()
	claims := Claims{
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// VerifyJWT returns the uid and token version carried by tokenString.
func (i *TokenIssuer) VerifyJWT(tokenString string) (string, uint64, error) {
	var claims Claims
	// parse token
	jwtToken, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return "", 0, err
	}

	// isValid
	if !jwtToken.Valid || claims.Subject == "" {
		return "", 0, ErrInvalidToken
	}

	return claims.Subject, claims.TokenVersion, nil
}
