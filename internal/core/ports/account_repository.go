package ports

import (
	"context"

	"github.com/threadworks/order-tracking/internal/core/domain"
)

// AccountRepository is the credential store. Admin and worker accounts live in
// separate collections; lookups that do not name a role search both.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	// FindByEmail expects an already normalized email.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByRefreshToken(ctx context.Context, token string) (*domain.Account, error)
	// SetRefreshToken overwrites whatever refresh token the account holds.
	SetRefreshToken(ctx context.Context, role domain.Role, id, token string) error
	// SwapRefreshToken replaces current with next only if current is still the
	// stored value. A lost race returns domain.ErrInvalidToken.
	SwapRefreshToken(ctx context.Context, role domain.Role, id, current, next string) error
	// ClearRefreshToken unsets token on whichever account holds it and returns
	// that account's id, or "" when no account held it.
	ClearRefreshToken(ctx context.Context, token string) (string, error)
}
