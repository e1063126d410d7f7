package ports

import (
	"context"

	"github.com/threadworks/order-tracking/internal/core/domain"
)

// SignupInput carries the signup form. Role values other than "admin" create
// a worker.
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	Role            string
	Phone           string
	DOB             string
	Address         string
	ProfileImageURL string
}

// Session is the result of a login or refresh.
type Session struct {
	Account *domain.Account
	Tokens  domain.TokenPair
}

// SessionService covers the account lifecycle from signup to logout.
type SessionService interface {
	Signup(ctx context.Context, input SignupInput) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	// Logout never fails; revocation is best effort.
	Logout(ctx context.Context, refreshToken string)
	Me(ctx context.Context, identity domain.Identity) (*domain.Account, error)
}

// SessionChecker answers whether an account still has a live session. Used
// by the access guard in strict mode.
type SessionChecker interface {
	CheckSession(ctx context.Context, accountID string) (bool, error)
}

// SessionCache remembers whether an account holds a live refresh token so the
// strict access guard does not hit the credential store on every request.
type SessionCache interface {
	Store(ctx context.Context, accountID string, active bool) error
	// Lookup returns found=false on a cache miss.
	Lookup(ctx context.Context, accountID string) (active, found bool, err error)
}
