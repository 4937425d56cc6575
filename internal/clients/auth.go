package clients

import (
	"context"
	"net/http"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/model"
)

type AuthClient struct{ c *Client }

func NewAuthClient(c *Client) *AuthClient { return &AuthClient{c: c} }

func (ac *AuthClient) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	var out model.AuthResponse
	err := ac.c.DoJSON(ctx, http.MethodPost, "/auth/token/", "", req, nil, &out)
	return out, err
}

func (ac *AuthClient) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	var out model.AuthResponse
	err := ac.c.DoJSON(ctx, http.MethodPost, "/auth/signup/", "", req, nil, &out)
	return out, err
}

func (ac *AuthClient) Me(ctx context.Context) (model.User, error) {
	var out model.User
	err := ac.c.DoJSON(ctx, http.MethodGet, "/auth/me/", "", nil, nil, &out)
	return out, err
}

// Refresh exchanges a refresh token for a new access token. The client
// behind ac must not itself refresh on 401.
func (ac *AuthClient) Refresh(ctx context.Context, refreshToken string) (model.RefreshResponse, error) {
	var out model.RefreshResponse
	err := ac.c.DoJSON(ctx, http.MethodPost, "/auth/token/refresh/", "", model.RefreshRequest{Refresh: refreshToken}, nil, &out)
	return out, err
}
