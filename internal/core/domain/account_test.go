package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"admin":   RoleAdmin,
		" Admin ": RoleAdmin,
		"worker":  RoleWorker,
		"manager": RoleWorker,
		"":        RoleWorker,
	}
	for in, want := range cases {
		if got := ParseRole(in); got != want {
			t.Fatalf("ParseRole(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  A@X.Com "); got != "a@x.com" {
		t.Fatalf("unexpected email: %q", got)
	}
}

func TestGuardError_UnwrapsToUnauthenticated(t *testing.T) {
	err := error(NewGuardError(ReasonExpired, "access token expired"))
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated in chain")
	}
	var ge *GuardError
	if !errors.As(err, &ge) || ge.Reason != ReasonExpired {
		t.Fatalf("expected expired guard error, got %v", err)
	}
}

func TestAuthenticationFailuresWrapKind(t *testing.T) {
	for _, err := range []error{ErrIncorrectPassword, ErrNoRefreshToken} {
		if !errors.Is(err, ErrAuthentication) {
			t.Fatalf("%v should wrap ErrAuthentication", err)
		}
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: email is required", ErrValidation), KindValidation},
		{ErrConflict, KindConflict},
		{ErrUserNotFound, KindNotFound},
		{ErrIncorrectPassword, KindAuthentication},
		{NewGuardError(ReasonMissing, "no token"), KindUnauthenticated},
		{fmt.Errorf("%w: bad signature", ErrInvalidToken), KindInvalidToken},
		{ErrExpiredToken, KindInvalidToken},
		{ErrForbidden, KindForbidden},
		{fmt.Errorf("login: %w", ErrInternal), KindInternal},
		{errors.New("boom"), KindInternal},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
