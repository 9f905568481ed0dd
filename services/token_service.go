package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// TokenPair is an issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// RefreshTokenID is the jti persisted for rotation; not serialized.
	RefreshTokenID string `json:"-"`
	ExpiresIn      int64  `json:"expires_in"`
}

// TokenService issues and validates HS256 JWTs. Refresh tokens carry a jti
// so individual tokens can be revoked on rotation.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a new TokenService.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// RefreshTTL exposes the refresh token lifetime for persistence.
func (t *TokenService) RefreshTTL() time.Duration { return t.refreshTTL }

// GenerateTokenPair issues a fresh access/refresh pair for the user.
func (t *TokenService) GenerateTokenPair(userID, email, role string) (*TokenPair, error) {
	access, err := t.sign(jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"role":    role,
		"typ":     "access",
		"exp":     time.Now().Add(t.accessTTL).Unix(),
		"iat":     time.Now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	jti := uuid.NewString()
	refresh, err := t.sign(jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"role":    role,
		"typ":     "refresh",
		"jti":     jti,
		"exp":     time.Now().Add(t.refreshTTL).Unix(),
		"iat":     time.Now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:    access,
		RefreshToken:   refresh,
		RefreshTokenID: jti,
		ExpiresIn:      int64(t.accessTTL.Seconds()),
	}, nil
}

func (t *TokenService) sign(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// ValidateToken parses a token string and returns its claims. When
// expectedType is non-empty the "typ" claim must match it.
func (t *TokenService) ValidateToken(tokenStr, expectedType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if expectedType != "" {
		if typ, ok := claims["typ"].(string); !ok || typ != expectedType {
			return nil, fmt.Errorf("invalid token type")
		}
	}
	return claims, nil
}
