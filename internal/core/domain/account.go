package domain

import (
	"strings"
	"time"
)

// Role identifies which account variant a record belongs to.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleWorker Role = "worker"
)

// ParseRole maps a requested signup role onto a variant. Anything other than
// "admin" is a worker.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleWorker
}

// Roles lists every account variant in lookup order.
var Roles = []Role{RoleAdmin, RoleWorker}

// Account is a user of either variant. The variant is fixed by the
// collection the record lives in.
type Account struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Role            Role      `json:"role"`
	Phone           string    `json:"phone,omitempty"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	DOB             string    `json:"dob,omitempty"`
	Address         string    `json:"address,omitempty"`
	RefreshToken    string    `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Identity returns the claims an access token carries for this account.
func (a *Account) Identity() Identity {
	return Identity{ID: a.ID, Role: a.Role, Name: a.Name}
}

// HasSession reports whether the account holds a live refresh token.
func (a *Account) HasSession() bool {
	return a.RefreshToken != ""
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Name string `json:"name"`
}

// NormalizeEmail case-folds an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
