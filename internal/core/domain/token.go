package domain

import "time"

// TokenKind distinguishes the two signed token families.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// TokenPair is what a successful login or refresh hands to the transport layer.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthEventType names an entry in the auth audit trail.
type AuthEventType string

const (
	EventSignup        AuthEventType = "signup"
	EventLogin         AuthEventType = "login"
	EventLoginFailed   AuthEventType = "login_failed"
	EventRefresh       AuthEventType = "refresh"
	EventRefreshFailed AuthEventType = "refresh_failed"
	EventLogout        AuthEventType = "logout"
)

// AuthEvent records the outcome of a session operation.
type AuthEvent struct {
	AccountID string
	Email     string
	Type      AuthEventType
	Outcome   string
	IP        string
	UserAgent string
	At        time.Time
}
