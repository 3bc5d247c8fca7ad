package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  wireIdentity `json:"user"`
}

// Login exchanges credentials for a bearer token and the signed-in identity.
func (c *Client) Login(ctx context.Context, email, password string) (string, domain.Identity, error) {
	req, err := jsonRequest(http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: password})
	if err != nil {
		return "", domain.Identity{}, err
	}

	var res loginResponse
	if err := c.do(ctx, req, &res); err != nil {
		return "", domain.Identity{}, err
	}
	if res.Token == "" {
		return "", domain.Identity{}, fmt.Errorf("%w: %w: login response without token", ErrRemoteCall, ErrInvalidPayload)
	}
	identity, err := res.User.toDomain()
	if err != nil {
		return "", domain.Identity{}, fmt.Errorf("%w: %w", ErrRemoteCall, err)
	}
	return res.Token, identity, nil
}

// VerifyToken asks the remote whether token is still accepted. Any non-2xx
// answer is returned as an error.
func (c *Client) VerifyToken(ctx context.Context, token string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/middleWare/verify-token",
		token:  token,
	}, nil)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword asks the remote to send a password reset email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	req, err := jsonRequest(http.MethodPost, "/auth/forgot-password", "", forgotPasswordRequest{Email: email})
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}
