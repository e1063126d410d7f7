package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/threadworks/order-tracking/internal/core/domain"
	"github.com/threadworks/order-tracking/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub credential store
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	accounts   map[string]*domain.Account
	nextID     int
	err        error  // if set, every call returns it
	beforeSwap func() // runs between lookup and compare-and-swap
	clearErr   error
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, a := range r.accounts {
		if a.Email == account.Email {
			return nil, domain.ErrConflict
		}
	}
	r.nextID++
	stored := cloneAccount(account)
	stored.ID = fmt.Sprintf("acc-%d", r.nextID)
	r.accounts[stored.ID] = stored
	return cloneAccount(stored), nil
}

func (r *stubAccountRepo) find(match func(*domain.Account) bool) (*domain.Account, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, role := range domain.Roles {
		for _, a := range r.accounts {
			if a.Role == role && match(a) {
				return cloneAccount(a), nil
			}
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.Email == email })
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.ID == id })
}

func (r *stubAccountRepo) FindByRefreshToken(_ context.Context, token string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.RefreshToken != "" && a.RefreshToken == token })
}

func (r *stubAccountRepo) SetRefreshToken(_ context.Context, role domain.Role, id, token string) error {
	if r.err != nil {
		return r.err
	}
	a, ok := r.accounts[id]
	if !ok || a.Role != role {
		return domain.ErrUserNotFound
	}
	a.RefreshToken = token
	return nil
}

func (r *stubAccountRepo) SwapRefreshToken(_ context.Context, role domain.Role, id, current, next string) error {
	if r.beforeSwap != nil {
		r.beforeSwap()
	}
	if r.err != nil {
		return r.err
	}
	a, ok := r.accounts[id]
	if !ok || a.Role != role || a.RefreshToken != current {
		return domain.ErrInvalidToken
	}
	a.RefreshToken = next
	return nil
}

func (r *stubAccountRepo) ClearRefreshToken(_ context.Context, token string) (string, error) {
	if r.clearErr != nil {
		return "", r.clearErr
	}
	for _, a := range r.accounts {
		if a.RefreshToken == token {
			a.RefreshToken = ""
			return a.ID, nil
		}
	}
	return "", nil
}

func (r *stubAccountRepo) stored(t *testing.T, email string) *domain.Account {
	t.Helper()
	for _, a := range r.accounts {
		if a.Email == email {
			return a
		}
	}
	t.Fatalf("no stored account for %s", email)
	return nil
}

type stubSessionCache struct {
	entries map[string]bool
	lookups int
}

func newStubSessionCache() *stubSessionCache {
	return &stubSessionCache{entries: make(map[string]bool)}
}

func (c *stubSessionCache) Store(_ context.Context, accountID string, active bool) error {
	c.entries[accountID] = active
	return nil
}

func (c *stubSessionCache) Lookup(_ context.Context, accountID string) (bool, bool, error) {
	c.lookups++
	active, found := c.entries[accountID]
	return active, found, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestSessionService(t *testing.T, opts ...SessionOption) (*SessionService, *stubAccountRepo, *TokenService) {
	t.Helper()
	repo := newStubAccountRepo()
	tokens := newTestTokenService(t)
	opts = append([]SessionOption{WithBcryptCost(bcrypt.MinCost)}, opts...)
	return NewSessionService(repo, tokens, zerolog.Nop(), opts...), repo, tokens
}

func signupInput(email, role string) ports.SignupInput {
	return ports.SignupInput{Name: "A", Email: email, Password: "pw", Role: role}
}

func mustSignup(t *testing.T, svc *SessionService, email, role string) *domain.Account {
	t.Helper()
	account, err := svc.Signup(context.Background(), signupInput(email, role))
	if err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
	return account
}

func mustLogin(t *testing.T, svc *SessionService, email string) *ports.Session {
	t.Helper()
	session, err := svc.Login(context.Background(), email, "pw")
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return session
}

// ---------------------------------------------------------------------------
// Signup
// ---------------------------------------------------------------------------

func TestSessionService_Signup_Success(t *testing.T) {
	svc, repo, _ := newTestSessionService(t)

	account, err := svc.Signup(context.Background(), ports.SignupInput{
		Name:     "Ana",
		Email:    "Ana@Example.com",
		Password: "pass123",
		Role:     "admin",
		Phone:    "555",
		DOB:      "1990-01-01",
	})
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if account.ID == "" || account.Role != domain.RoleAdmin || account.Email != "ana@example.com" {
		t.Fatalf("unexpected account: %+v", account)
	}
	if account.DOB != "" {
		t.Fatalf("admin accounts do not carry worker fields")
	}

	stored := repo.stored(t, "ana@example.com")
	if stored.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if stored.RefreshToken != "" {
		t.Fatalf("signup must not open a session")
	}
}

func TestSessionService_Signup_UnknownRoleIsWorker(t *testing.T) {
	svc, _, _ := newTestSessionService(t)

	account, err := svc.Signup(context.Background(), ports.SignupInput{
		Name: "Bo", Email: "bo@x.com", Password: "pw", Role: "supervisor", Address: "Main St",
	})
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if account.Role != domain.RoleWorker || account.Address != "Main St" {
		t.Fatalf("unexpected account: %+v", account)
	}
}

func TestSessionService_Signup_Validation(t *testing.T) {
	svc, _, _ := newTestSessionService(t)

	inputs := []ports.SignupInput{
		{Email: "a@x.com", Password: "pw", Role: "admin"},
		{Name: "A", Password: "pw", Role: "admin"},
		{Name: "A", Email: "a@x.com", Role: "admin"},
		{Name: "A", Email: "a@x.com", Password: "pw"},
	}
	for i, in := range inputs {
		if _, err := svc.Signup(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestSessionService_Signup_PasswordTooLong(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	in := signupInput("long@x.com", "worker")
	in.Password = strings.Repeat("p", 80)

	if _, err := svc.Signup(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSessionService_Signup_DuplicateAcrossVariants(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	mustSignup(t, svc, "a@x.com", "admin")

	for _, role := range []string{"admin", "worker"} {
		if _, err := svc.Signup(context.Background(), signupInput("A@X.com", role)); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("role %s: expected ErrConflict, got %v", role, err)
		}
	}
}

func TestSessionService_Signup_StoreFailureIsInternal(t *testing.T) {
	svc, repo, _ := newTestSessionService(t)
	repo.err = errors.New("connection reset by peer")

	_, err := svc.Signup(context.Background(), signupInput("a@x.com", "admin"))
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("internal error leaked: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestSessionService_Login_Success(t *testing.T) {
	svc, repo, tokens := newTestSessionService(t)
	created := mustSignup(t, svc, "a@x.com", "worker")

	session, err := svc.Login(context.Background(), "A@x.COM", "pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.Account.ID != created.ID {
		t.Fatalf("unexpected account: %+v", session.Account)
	}

	identity, err := tokens.VerifyAccessToken(session.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if identity.ID != created.ID || identity.Role != domain.RoleWorker || identity.Name != "A" {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	if got := repo.stored(t, "a@x.com").RefreshToken; got != session.Tokens.RefreshToken {
		t.Fatalf("stored refresh token not updated")
	}
}

func TestSessionService_Login_ReplacesPreviousRefreshToken(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	mustSignup(t, svc, "a@x.com", "admin")

	first := mustLogin(t, svc, "a@x.com")
	mustLogin(t, svc, "a@x.com")

	if _, err := svc.Refresh(context.Background(), first.Tokens.RefreshToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected superseded token to be rejected, got %v", err)
	}
}

func TestSessionService_Login_WrongPasswordLeavesStoreUntouched(t *testing.T) {
	svc, repo, _ := newTestSessionService(t)
	mustSignup(t, svc, "a@x.com", "admin")
	session := mustLogin(t, svc, "a@x.com")

	_, err := svc.Login(context.Background(), "a@x.com", "wrong")
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if got := repo.stored(t, "a@x.com").RefreshToken; got != session.Tokens.RefreshToken {
		t.Fatalf("failed login mutated the stored refresh token")
	}
}

func TestSessionService_Login_UserNotFound(t *testing.T) {
	svc, _, _ := newTestSessionService(t)

	if _, err := svc.Login(context.Background(), "ghost@x.com", "pw"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSessionService_Login_Validation(t *testing.T) {
	svc, _, _ := newTestSessionService(t)

	if _, err := svc.Login(context.Background(), "", "pw"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@x.com", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

func TestSessionService_Refresh_RotatesExactlyOnce(t *testing.T) {
	svc, repo, _ := newTestSessionService(t)
	mustSignup(t, svc, "a@x.com", "admin")
	login := mustLogin(t, svc, "a@x.com")

	rotated, err := svc.Refresh(context.Background(), login.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}
	if rotated.Tokens.RefreshToken == login.Tokens.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}
	if got := repo.stored(t, "a@x.com").RefreshToken; got != rotated.Tokens.RefreshToken {
		t.Fatalf("rotated token not persisted")
	}

	if _, err := svc.Refresh(context.Background(), login.Tokens.RefreshToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected replay to fail with ErrInvalidToken, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), rotated.Tokens.RefreshToken); err != nil {
		t.Fatalf("rotated token should be usable: %v", err)
	}
}

func TestSessionService_Refresh_Missing(t *testing.T) {
	svc, _, _ := newTestSessionService(t)

	if _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestSessionService_Refresh_ForeignToken(t *testing.T) {
	svc, _, tokens := newTestSessionService(t)
	account := mustSignup(t, svc, "a@x.com", "admin")
	mustLogin(t, svc, "a@x.com")

	foreign, _, err := tokens.IssueRefreshToken(account.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), foreign); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionService_Refresh_StoredButUnverifiable(t *testing.T) {
	svc, repo, _ := newTestSessionService(t)
	account := mustSignup(t, svc, "a@x.com", "admin")
	repo.accounts[account.ID].RefreshToken = "garbage"

	if _, err := svc.Refresh(context.Background(), "garbage"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionService_Refresh_SubjectMismatch(t *testing.T) {
	svc, repo, tokens := newTestSessionService(t)
	account := mustSignup(t, svc, "a@x.com", "admin")
	other, _, _ := tokens.IssueRefreshToken("someone-else")
	repo.accounts[account.ID].RefreshToken = other

	if _, err := svc.Refresh(context.Background(), other); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionService_Refresh_LosesConcurrentRotation(t *testing.T) {
	svc, repo, _ := newTestSessionService(t)
	account := mustSignup(t, svc, "a@x.com", "admin")
	login := mustLogin(t, svc, "a@x.com")

	repo.beforeSwap = func() {
		repo.accounts[account.ID].RefreshToken = "rotated-by-someone-else"
	}

	if _, err := svc.Refresh(context.Background(), login.Tokens.RefreshToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if got := repo.accounts[account.ID].RefreshToken; got != "rotated-by-someone-else" {
		t.Fatalf("losing refresh overwrote the winner: %s", got)
	}
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func TestSessionService_Logout_RevokesRefreshToken(t *testing.T) {
	svc, repo, _ := newTestSessionService(t)
	mustSignup(t, svc, "a@x.com", "admin")
	login := mustLogin(t, svc, "a@x.com")

	svc.Logout(context.Background(), login.Tokens.RefreshToken)

	if repo.stored(t, "a@x.com").RefreshToken != "" {
		t.Fatalf("refresh token not cleared")
	}
	if _, err := svc.Refresh(context.Background(), login.Tokens.RefreshToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("refresh after logout: expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionService_Logout_NeverFails(t *testing.T) {
	svc, repo, _ := newTestSessionService(t)

	svc.Logout(context.Background(), "")
	svc.Logout(context.Background(), "unknown")

	repo.clearErr = errors.New("store down")
	svc.Logout(context.Background(), "anything")
}

// ---------------------------------------------------------------------------
// Me
// ---------------------------------------------------------------------------

func TestSessionService_Me(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	created := mustSignup(t, svc, "a@x.com", "worker")

	account, err := svc.Me(context.Background(), created.Identity())
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if account.Email != "a@x.com" || account.Role != domain.RoleWorker {
		t.Fatalf("unexpected account: %+v", account)
	}

	if _, err := svc.Me(context.Background(), domain.Identity{ID: "deleted"}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.Me(context.Background(), domain.Identity{}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// CheckSession
// ---------------------------------------------------------------------------

func TestSessionService_CheckSession_FollowsLifecycle(t *testing.T) {
	cache := newStubSessionCache()
	svc, _, _ := newTestSessionService(t, WithSessionCache(cache))
	account := mustSignup(t, svc, "a@x.com", "admin")

	active, err := svc.CheckSession(context.Background(), account.ID)
	if err != nil || active {
		t.Fatalf("expected inactive before login, got %v %v", active, err)
	}

	login := mustLogin(t, svc, "a@x.com")
	if active, _ := svc.CheckSession(context.Background(), account.ID); !active {
		t.Fatalf("expected active after login")
	}

	svc.Logout(context.Background(), login.Tokens.RefreshToken)
	if active, _ := svc.CheckSession(context.Background(), account.ID); active {
		t.Fatalf("expected inactive after logout")
	}
}

func TestSessionService_CheckSession_UsesCache(t *testing.T) {
	cache := newStubSessionCache()
	svc, repo, _ := newTestSessionService(t, WithSessionCache(cache))
	cache.entries["acc-9"] = true
	repo.err = errors.New("store should not be consulted")

	active, err := svc.CheckSession(context.Background(), "acc-9")
	if err != nil || !active {
		t.Fatalf("expected cached active session, got %v %v", active, err)
	}
}

func TestSessionService_CheckSession_WithoutCache(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	account := mustSignup(t, svc, "a@x.com", "admin")
	mustLogin(t, svc, "a@x.com")

	if active, err := svc.CheckSession(context.Background(), account.ID); err != nil || !active {
		t.Fatalf("expected active session, got %v %v", active, err)
	}
	if active, err := svc.CheckSession(context.Background(), "missing"); err != nil || active {
		t.Fatalf("expected inactive for unknown account, got %v %v", active, err)
	}
}

// ---------------------------------------------------------------------------
// End to end
// ---------------------------------------------------------------------------

func TestSessionService_Scenario(t *testing.T) {
	svc, repo, tokens := newTestSessionService(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, ports.SignupInput{Name: "A", Email: "a@x.com", Password: "pw", Role: "admin"})
	if err != nil || created.Role != domain.RoleAdmin {
		t.Fatalf("signup: %+v %v", created, err)
	}

	login, err := svc.Login(ctx, "a@x.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if repo.stored(t, "a@x.com").RefreshToken != login.Tokens.RefreshToken {
		t.Fatalf("refresh token not stored")
	}

	identity, err := tokens.VerifyAccessToken(login.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	me, err := svc.Me(ctx, *identity)
	if err != nil || me.ID != created.ID || me.Email != "a@x.com" || me.Role != domain.RoleAdmin {
		t.Fatalf("me: %+v %v", me, err)
	}

	rotated, err := svc.Refresh(ctx, login.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.Tokens.AccessToken == "" || rotated.Tokens.RefreshToken == login.Tokens.RefreshToken {
		t.Fatalf("expected a new token pair")
	}
	if _, err := svc.Refresh(ctx, login.Tokens.RefreshToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("old refresh token accepted: %v", err)
	}
}
