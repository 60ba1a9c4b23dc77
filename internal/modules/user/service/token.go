package user

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"hmcc.com/communityplatform/internal/modules/user/dto"
	"hmcc.com/communityplatform/pkg/apperror"
)

// tokenIssuer mints and verifies the three token kinds: access (short-ish),
// refresh (long, separate secret) and reset (1h, carries type=reset).
type tokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	resetTTL      time.Duration
}

type resetClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

func newTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL, resetTTL time.Duration) *tokenIssuer {
	return &tokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		resetTTL:      resetTTL,
	}
}

func (t *tokenIssuer) sign(subject string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Pair issues a fresh access/refresh token pair for the user.
func (t *tokenIssuer) Pair(userID uuid.UUID) (dto.TokenPair, error) {
	access, err := t.sign(userID.String(), t.accessTTL, t.accessSecret)
	if err != nil {
		return dto.TokenPair{}, err
	}
	refresh, err := t.sign(userID.String(), t.refreshTTL, t.refreshSecret)
	if err != nil {
		return dto.TokenPair{}, err
	}
	return dto.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (t *tokenIssuer) ResetToken(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(t.resetTTL)
	claims := resetClaims{
		Type: "reset",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func parseHS256(tokenString string, claims jwt.Claims, secret []byte) (*jwt.Token, error) {
	return jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperror.ErrInvalidToken
		}
		return secret, nil
	})
}

// VerifyRefresh validates a refresh token and returns the user id it was
// issued for.
func (t *tokenIssuer) VerifyRefresh(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := parseHS256(tokenString, claims, t.refreshSecret)
	if err != nil || !token.Valid {
		return uuid.Nil, apperror.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, apperror.ErrInvalidToken
	}
	return userID, nil
}

// VerifyReset validates a reset token's signature, expiry and type claim.
func (t *tokenIssuer) VerifyReset(tokenString string) (uuid.UUID, error) {
	claims := &resetClaims{}
	token, err := parseHS256(tokenString, claims, t.accessSecret)
	if err != nil || !token.Valid || claims.Type != "reset" {
		return uuid.Nil, apperror.ErrInvalidResetToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, apperror.ErrInvalidResetToken
	}
	return userID, nil
}
