package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"wordwebs/internal/config"
)

const apiBase = "https://discord.com/api/v10"

// Endpoint is Discord's OAuth2 endpoint pair.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

// ErrInvalidToken is returned when Discord rejects a bearer credential.
var ErrInvalidToken = errors.New("invalid or expired token")

// User is the identity Discord reports for a token.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// TokenResult carries an exchanged or refreshed token back to the
// Activity frontend.
type TokenResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	User         *User  `json:"user,omitempty"`
}

// Verifier resolves a bearer credential to a Discord user, or reports it
// invalid.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (*User, error)
}

// OAuthClient performs the code-exchange, refresh and verification
// flows against Discord.
type OAuthClient struct {
	conf       *oauth2.Config
	httpClient *http.Client
	apiBase    string
}

// NewOAuthClient builds the client from app credentials.
func NewOAuthClient(cfg *config.Config) *OAuthClient {
	return &OAuthClient{
		conf: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			Endpoint:     Endpoint,
			RedirectURL:  cfg.DiscordRedirectURI,
			Scopes:       []string{"identify"},
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiBase:    apiBase,
	}
}

// ExchangeCode trades an authorization code for tokens and resolves the
// user the token belongs to.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) (*TokenResult, error) {
	token, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("discord code exchange: %w", err)
	}

	user, err := c.fetchUser(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}

	return &TokenResult{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    expiresIn(token),
		User:         user,
	}, nil
}

// Refresh obtains a fresh access token from a refresh token.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*TokenResult, error) {
	source := c.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("discord token refresh: %w", err)
	}

	return &TokenResult{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    expiresIn(token),
	}, nil
}

// VerifyToken asks Discord who the bearer token belongs to. Returns
// ErrInvalidToken when Discord rejects it.
func (c *OAuthClient) VerifyToken(ctx context.Context, token string) (*User, error) {
	return c.fetchUser(ctx, token)
}

func (c *OAuthClient) fetchUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/users/@me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord user lookup returned %d", resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func expiresIn(token *oauth2.Token) int {
	if token.Expiry.IsZero() {
		return 3600
	}
	remaining := int(time.Until(token.Expiry).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
