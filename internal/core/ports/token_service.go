package ports

import "github.com/threadworks/order-tracking/internal/core/domain"

// TokenIssuer signs and verifies access and refresh tokens.
type TokenIssuer interface {
	IssuePair(identity domain.Identity) (domain.TokenPair, error)
	VerifyAccessToken(token string) (*domain.Identity, error)
	// VerifyRefreshToken returns the token subject.
	VerifyRefreshToken(token string) (string, error)
}
