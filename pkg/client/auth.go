package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/naveenspark/tally/pkg/domain"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a new account. It never returns a session; the caller has
// to sign in afterwards.
func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	var user domain.User
	if err := c.post(ctx, "/auth/v1/signup", credentials{Email: email, Password: password}, &user); err != nil {
		return nil, fmt.Errorf("client.SignUp: %w", err)
	}
	return &user, nil
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	var s domain.Session
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", credentials{Email: email, Password: password}, &s); err != nil {
		return nil, fmt.Errorf("client.SignInWithPassword: %w", err)
	}
	return &s, nil
}

// RefreshSession exchanges a refresh token for a new session. It authenticates
// with the anon key since the current access token is usually expired.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	var s domain.Session
	body := map[string]string{"refresh_token": refreshToken}
	headers := http.Header{"Authorization": {"Bearer " + c.apiKey}}
	if err := c.doRequest(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", body, headers, &s); err != nil {
		return nil, fmt.Errorf("client.RefreshSession: %w", err)
	}
	return &s, nil
}

// GetUser returns the user owning the current access token.
func (c *Client) GetUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.get(ctx, "/auth/v1/user", &user); err != nil {
		return nil, fmt.Errorf("client.GetUser: %w", err)
	}
	return &user, nil
}

// SignOut revokes the current access token on the server.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil); err != nil {
		return fmt.Errorf("client.SignOut: %w", err)
	}
	return nil
}
