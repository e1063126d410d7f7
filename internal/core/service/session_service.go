package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/threadworks/order-tracking/internal/core/domain"
	"github.com/threadworks/order-tracking/internal/core/ports"
)

// SessionService implements signup, login, refresh rotation, logout and
// profile lookup over the credential store.
type SessionService struct {
	repo   ports.AccountRepository
	tokens ports.TokenIssuer
	cache  ports.SessionCache
	cost   int
	log    zerolog.Logger
}

// SessionOption customises a SessionService.
type SessionOption func(*SessionService)

// WithSessionCache fronts CheckSession with cache and keeps it current on
// login, refresh and logout.
func WithSessionCache(cache ports.SessionCache) SessionOption {
	return func(s *SessionService) { s.cache = cache }
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) SessionOption {
	return func(s *SessionService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

func NewSessionService(repo ports.AccountRepository, tokens ports.TokenIssuer, log zerolog.Logger, opts ...SessionOption) *SessionService {
	s := &SessionService{
		repo:   repo,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup creates an account in the variant matching input.Role. It does not
// open a session.
func (s *SessionService) Signup(ctx context.Context, input ports.SignupInput) (*domain.Account, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" ||
		input.Password == "" || strings.TrimSpace(input.Role) == "" {
		return nil, fmt.Errorf("%w: name, email, password and role are required", domain.ErrValidation)
	}

	email := domain.NormalizeEmail(input.Email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrConflict
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, s.internal("signup: email lookup", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password is too long", domain.ErrValidation)
		}
		return nil, s.internal("signup: hash password", err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Name:            strings.TrimSpace(input.Name),
		Email:           email,
		PasswordHash:    string(hash),
		Role:            domain.ParseRole(input.Role),
		Phone:           input.Phone,
		ProfileImageURL: input.ProfileImageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if account.Role == domain.RoleWorker {
		account.DOB = input.DOB
		account.Address = input.Address
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, s.internal("signup: create account", err)
	}

	s.log.Info().Str("account_id", created.ID).Str("role", string(created.Role)).Msg("account created")
	return created, nil
}

// Login verifies credentials and opens a session. The new refresh token
// replaces any previous one, revoking it.
func (s *SessionService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	account, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, s.internal("login: lookup", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrIncorrectPassword
	}

	tokens, err := s.tokens.IssuePair(account.Identity())
	if err != nil {
		return nil, s.internal("login: issue tokens", err)
	}
	if err := s.repo.SetRefreshToken(ctx, account.Role, account.ID, tokens.RefreshToken); err != nil {
		return nil, s.internal("login: store refresh token", err)
	}
	account.RefreshToken = tokens.RefreshToken
	s.remember(ctx, account.ID, true)

	s.log.Info().Str("account_id", account.ID).Str("role", string(account.Role)).Msg("login succeeded")
	return &ports.Session{Account: account, Tokens: tokens}, nil
}

// Refresh rotates a live refresh token. The presented token must be the one
// currently stored for its account; after rotation it can never be used again.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*ports.Session, error) {
	if refreshToken == "" {
		return nil, domain.ErrNoRefreshToken
	}

	account, err := s.repo.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: refresh token is not active", domain.ErrInvalidToken)
		}
		return nil, s.internal("refresh: lookup", err)
	}

	subject, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if subject != account.ID {
		return nil, fmt.Errorf("%w: subject mismatch", domain.ErrInvalidToken)
	}

	tokens, err := s.tokens.IssuePair(account.Identity())
	if err != nil {
		return nil, s.internal("refresh: issue tokens", err)
	}
	if err := s.repo.SwapRefreshToken(ctx, account.Role, account.ID, refreshToken, tokens.RefreshToken); err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return nil, err
		}
		return nil, s.internal("refresh: rotate refresh token", err)
	}
	account.RefreshToken = tokens.RefreshToken
	s.remember(ctx, account.ID, true)

	s.log.Debug().Str("account_id", account.ID).Msg("refresh token rotated")
	return &ports.Session{Account: account, Tokens: tokens}, nil
}

// Logout revokes refreshToken if some account still holds it. Store failures
// are logged and swallowed.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	accountID, err := s.repo.ClearRefreshToken(ctx, refreshToken)
	if err != nil {
		s.log.Warn().Err(err).Msg("logout: failed to revoke refresh token")
		return
	}
	if accountID == "" {
		return
	}
	s.remember(ctx, accountID, false)
	s.log.Info().Str("account_id", accountID).Msg("logout")
}

// Me returns the full account behind an authenticated identity.
func (s *SessionService) Me(ctx context.Context, identity domain.Identity) (*domain.Account, error) {
	if identity.ID == "" {
		return nil, domain.ErrUnauthenticated
	}
	account, err := s.repo.FindByID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, s.internal("me: lookup", err)
	}
	return account, nil
}

// CheckSession reports whether accountID still exists and holds a live
// refresh token, consulting the cache first when one is configured.
func (s *SessionService) CheckSession(ctx context.Context, accountID string) (bool, error) {
	if s.cache != nil {
		active, found, err := s.cache.Lookup(ctx, accountID)
		if err != nil {
			s.log.Warn().Err(err).Str("account_id", accountID).Msg("session cache lookup failed, falling back to store")
		} else if found {
			return active, nil
		}
	}

	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.remember(ctx, accountID, false)
			return false, nil
		}
		return false, s.internal("check session: lookup", err)
	}

	active := account.HasSession()
	s.remember(ctx, accountID, active)
	return active, nil
}

func (s *SessionService) remember(ctx context.Context, accountID string, active bool) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Store(ctx, accountID, active); err != nil {
		s.log.Warn().Err(err).Str("account_id", accountID).Msg("failed to update session cache")
	}
}

func (s *SessionService) internal(op string, err error) error {
	s.log.Error().Err(err).Str("op", op).Msg("session operation failed")
	return fmt.Errorf("%s: %w", op, domain.ErrInternal)
}
