package handler

import (
	"strings"

	"credchain/internal/auth/models"
	dErrors "credchain/pkg/domain-errors"
)

// LoginRequest is the body of both login endpoints.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if len(r.Email) > 254 {
		return dErrors.New(dErrors.CodeValidation, "email must be at most 254 characters")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	if len(r.Password) > 72 {
		return dErrors.New(dErrors.CodeValidation, "password must be at most 72 bytes")
	}
	return nil
}

func (r *LoginRequest) Credentials() models.Credentials {
	return models.Credentials{Email: r.Email, Password: r.Password}
}

// TokenRequest carries a refresh token for refresh and logout.
type TokenRequest struct {
	Token string `json:"token"`
}

func (r *TokenRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	if r.Token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	return nil
}

type LoginResponse struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	ExpiresIn int    `json:"expires_in"`
}

type RefreshResponse struct {
	Access    string `json:"access"`
	ExpiresIn int    `json:"expires_in"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
