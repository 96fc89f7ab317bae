// Package auth issues and verifies the access and refresh JWTs handed out at login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer = "projectcamp"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenIssuer signs HS256 tokens with a shared secret.
type TokenIssuer struct {
	secretKey          []byte
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	now                func() time.Time
}

func NewTokenIssuer(secretKey string, accessExpiry, refreshExpiry time.Duration) (*TokenIssuer, error) {
	if secretKey == "" {
		return nil, errors.New("JWT secret key cannot be empty")
	}
	if accessExpiry == 0 {
		accessExpiry = 15 * time.Minute
	}
	if refreshExpiry == 0 {
		refreshExpiry = 7 * 24 * time.Hour
	}

	return &TokenIssuer{
		secretKey:          []byte(secretKey),
		AccessTokenExpiry:  accessExpiry,
		RefreshTokenExpiry: refreshExpiry,
		now:                time.Now,
	}, nil
}

type Claims struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a login or refresh. RefreshTokenID is the jti
// under which the session is recorded.
type TokenPair struct {
	AccessToken    string
	RefreshToken   string
	RefreshTokenID string
	RefreshExpires time.Time
}

func (a *TokenIssuer) GenerateTokens(userID, email, username string) (TokenPair, error) {
	now := a.now()

	access, err := a.sign(Claims{
		Email:     email,
		Username:  username,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	tokenID := uuid.NewString()
	refreshExpires := now.Add(a.RefreshTokenExpiry)
	refresh, err := a.sign(Claims{
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(refreshExpires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:    access,
		RefreshToken:   refresh,
		RefreshTokenID: tokenID,
		RefreshExpires: refreshExpires,
	}, nil
}

// VerifyAccessToken returns the user id carried by a valid access token.
func (a *TokenIssuer) VerifyAccessToken(tokenString string) (string, error) {
	claims, err := a.parse(tokenString, tokenTypeAccess)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// VerifyRefreshToken returns the claims of a valid refresh token.
func (a *TokenIssuer) VerifyRefreshToken(tokenString string) (*Claims, error) {
	claims, err := a.parse(tokenString, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (a *TokenIssuer) sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secretKey)
}

func (a *TokenIssuer) parse(tokenString, tokenType string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secretKey, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
