package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/threadworks/order-tracking/internal/core/domain"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

var ErrMissingSecret = errors.New("token service: access and refresh secrets are required")

// TokenConfig holds the process-wide signing settings.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Claims is the payload of both token kinds. Role and Name are only set on
// access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Kind domain.TokenKind `json:"typ"`
	Role domain.Role      `json:"role,omitempty"`
	Name string           `json:"name,omitempty"`
}

// TokenService signs access and refresh tokens with independent secrets.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

// AccessTTL is the lifetime of issued access tokens.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL is the lifetime of issued refresh tokens.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccessToken signs {id, role, name} with the access secret.
func (s *TokenService) IssueAccessToken(identity domain.Identity) (string, time.Time, error) {
	claims := s.baseClaims(domain.TokenAccess, identity.ID, s.accessTTL)
	claims.Role = identity.Role
	claims.Name = identity.Name
	return s.sign(claims, s.accessSecret)
}

// IssueRefreshToken signs {id} with the refresh secret.
func (s *TokenService) IssueRefreshToken(accountID string) (string, time.Time, error) {
	return s.sign(s.baseClaims(domain.TokenRefresh, accountID, s.refreshTTL), s.refreshSecret)
}

// IssuePair issues a fresh access and refresh token for identity.
func (s *TokenService) IssuePair(identity domain.Identity) (domain.TokenPair, error) {
	access, accessExp, err := s.IssueAccessToken(identity)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, refreshExp, err := s.IssueRefreshToken(identity.ID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify parses token as the given kind. Failures wrap domain.ErrExpiredToken
// when only the expiry is at fault and domain.ErrInvalidToken otherwise.
func (s *TokenService) Verify(token string, kind domain.TokenKind) (*Claims, error) {
	secret := s.accessSecret
	if kind == domain.TokenRefresh {
		secret = s.refreshSecret
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", domain.ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token", domain.ErrInvalidToken, kind)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}
	if kind == domain.TokenAccess && claims.Role == "" {
		return nil, fmt.Errorf("%w: missing role", domain.ErrInvalidToken)
	}
	return claims, nil
}

func (s *TokenService) VerifyAccessToken(token string) (*domain.Identity, error) {
	claims, err := s.Verify(token, domain.TokenAccess)
	if err != nil {
		return nil, err
	}
	return &domain.Identity{ID: claims.Subject, Role: claims.Role, Name: claims.Name}, nil
}

func (s *TokenService) VerifyRefreshToken(token string) (string, error) {
	claims, err := s.Verify(token, domain.TokenRefresh)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *TokenService) baseClaims(kind domain.TokenKind, subject string, ttl time.Duration) *Claims {
	now := s.now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Kind: kind,
	}
}

func (s *TokenService) sign(claims *Claims, secret []byte) (string, time.Time, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing %s token: %w", claims.Kind, err)
	}
	return signed, claims.ExpiresAt.Time, nil
}
