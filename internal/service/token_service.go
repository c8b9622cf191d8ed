package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"clinic-api/internal/model"
)

type sessionClaims struct {
	UserID   int64      `json:"userId"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	StaffID  *int64     `json:"staffId"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens. Tokens are never
// stored; validity is signature plus expiry.
type TokenService struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, defaultTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if defaultTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	return &TokenService{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Issue signs claims; ttl <= 0 uses the default lifetime.
func (s *TokenService) Issue(claims model.AuthClaims, ttl time.Duration) (model.IssuedToken, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := s.now()
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
		StaffID:  claims.StaffID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(claims.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return model.IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}

	return model.IssuedToken{Token: signed, ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

// Verify returns model.ErrExpiredToken for a well-signed token past its
// expiry and model.ErrInvalidToken for everything else that fails.
func (s *TokenService) Verify(tokenString string) (model.AuthClaims, error) {
	if tokenString == "" {
		return model.AuthClaims{}, model.ErrInvalidToken
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.AuthClaims{}, model.ErrExpiredToken
		}
		slog.Debug("token rejected", "reason", err.Error())
		return model.AuthClaims{}, model.ErrInvalidToken
	}

	if !parsed.Valid || claims.UserID <= 0 || claims.Username == "" {
		return model.AuthClaims{}, model.ErrInvalidToken
	}

	if _, ok := model.ParseRole(string(claims.Role)); !ok {
		return model.AuthClaims{}, model.ErrInvalidToken
	}

	out := model.AuthClaims{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
		StaffID:  claims.StaffID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}

	return out, nil
}
