package apiclient

import (
	"context"

	"github.com/aj9599/rental-billing/models"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type Auth struct{ c *Client }

func (c *Client) Auth() *Auth { return &Auth{c: c} }

func (a *Auth) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var res AuthResponse
	if err := a.c.post(ctx, "/auth/login", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *Auth) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var res AuthResponse
	if err := a.c.post(ctx, "/auth/register", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Me returns the user the current token belongs to.
func (a *Auth) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := a.c.get(ctx, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
