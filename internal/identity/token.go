package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/healthbridge/healthbridge/pkg/config"
	"github.com/healthbridge/healthbridge/pkg/types"
)

// JWTClaims represents JWT token claims
type JWTClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 session tokens
type TokenManager struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	audience string
}

// NewTokenManager creates a new token manager
func NewTokenManager(cfg *config.JWTConfig) *TokenManager {
	return &TokenManager{
		secret:   []byte(cfg.SecretKey),
		ttl:      time.Duration(cfg.AccessTokenTTL) * time.Second,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// Generate issues a signed token carrying the user's id, name, and role
func (tm *TokenManager) Generate(user *types.User) (*types.AuthToken, error) {
	now := time.Now()
	expiresAt := now.Add(tm.ttl)

	claims := &JWTClaims{
		UserID: user.ID,
		Name:   user.Name,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tm.issuer,
			Audience:  jwt.ClaimStrings{tm.audience},
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &types.AuthToken{
		AccessToken: tokenString,
		TokenType:   "Bearer",
		ExpiresIn:   int64(tm.ttl.Seconds()),
		IssuedAt:    now,
	}, nil
}

// Validate parses a token and returns the claims it carries. Expired tokens
// are reported distinctly from malformed ones.
func (tm *TokenManager) Validate(tokenString string) (*types.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, types.NewAuthenticationError(types.ErrCodeTokenExpired, "token expired")
		}
		return nil, types.NewAuthenticationError(types.ErrCodeTokenMalformed, "malformed token")
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, types.NewAuthenticationError(types.ErrCodeTokenMalformed, "malformed token")
	}

	return &types.UserClaims{
		UserID: claims.UserID,
		Name:   claims.Name,
		Role:   types.UserRole(claims.Role),
	}, nil
}
