package handler

import (
	"github.com/threadworks/order-tracking/internal/core/domain"
)

type signupRequest struct {
	Name            string `json:"name"            validate:"required"`
	Email           string `json:"email"           validate:"required,email"`
	Password        string `json:"password"        validate:"required"`
	Role            string `json:"role"            validate:"required"`
	Phone           string `json:"phone,omitempty"`
	DOB             string `json:"dob,omitempty"`
	Address         string `json:"address,omitempty"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// userSummary is the public view returned on signup.
type userSummary struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

func toUserSummary(a *domain.Account) *userSummary {
	return &userSummary{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role}
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type signupResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *userSummary `json:"user"`
}

type meResponse struct {
	Success bool            `json:"success"`
	User    *domain.Account `json:"user"`
}

// errorResponse documents the error envelope rendered by the central error
// handler.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}
