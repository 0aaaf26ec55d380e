package supabase

import (
	"context"
	"net/url"
	"time"

	"bookshelf/internal/models"
)

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
	User         models.User `json:"user"`
}

func sessionFromToken(tr *tokenResponse) *models.Session {
	return &models.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
		User:         tr.User,
	}
}

// SignIn exchanges email and password for a session. Invalid credentials
// come back as an *APIError with the backend's reason.
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	query := url.Values{}
	query.Set("grant_type", "password")

	body := map[string]string{"email": email, "password": password}

	var tr tokenResponse
	if _, err := c.do(ctx, "sign_in", "POST", "/auth/v1/token", query, nil, "", body, &tr); err != nil {
		return nil, err
	}

	return sessionFromToken(&tr), nil
}

// SignUpResult distinguishes an immediately confirmed account from one
// still waiting on its confirmation email. No session is returned either
// way; signing up never authenticates.
type SignUpResult struct {
	User    *models.User
	Pending bool
}

// SignUp registers a new account. When the backend requires email
// confirmation the result is marked pending.
func (c *Client) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	body := map[string]string{"email": email, "password": password}

	// The signup endpoint answers with either a bare user object (email
	// confirmation on) or a full token response (autoconfirm on).
	var resp struct {
		ID                 string       `json:"id"`
		Email              string       `json:"email"`
		ConfirmedAt        string       `json:"confirmed_at"`
		ConfirmationSentAt string       `json:"confirmation_sent_at"`
		AccessToken        string       `json:"access_token"`
		User               *models.User `json:"user"`
	}

	if _, err := c.do(ctx, "sign_up", "POST", "/auth/v1/signup", nil, nil, "", body, &resp); err != nil {
		return nil, err
	}

	if resp.AccessToken != "" && resp.User != nil {
		return &SignUpResult{User: resp.User, Pending: false}, nil
	}

	if resp.ID != "" {
		return &SignUpResult{
			User:    &models.User{ID: resp.ID, Email: resp.Email},
			Pending: resp.ConfirmedAt == "",
		}, nil
	}

	return &SignUpResult{Pending: true}, nil
}

// SignOut revokes the session behind the given access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, "sign_out", "POST", "/auth/v1/logout", nil, nil, accessToken, nil, nil)
	return err
}

// RefreshSession trades a refresh token for a fresh session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	query := url.Values{}
	query.Set("grant_type", "refresh_token")

	body := map[string]string{"refresh_token": refreshToken}

	var tr tokenResponse
	if _, err := c.do(ctx, "refresh", "POST", "/auth/v1/token", query, nil, "", body, &tr); err != nil {
		return nil, err
	}

	return sessionFromToken(&tr), nil
}

// GetUser returns the user behind an access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*models.User, error) {
	var user models.User
	if _, err := c.do(ctx, "get_user", "GET", "/auth/v1/user", nil, nil, accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
