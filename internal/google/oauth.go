// ABOUTME: Google OAuth provider: device-style token exchange, refresh-token grant, revocation
// ABOUTME: Implements auth.AuthProvider against the standard Google OAuth2 endpoints

package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harper/review-rescue/internal/auth"
	"github.com/harper/review-rescue/internal/errs"
)

// Default Google OAuth2 endpoints. Overridable for tests.
const (
	DefaultTokenURL    = "https://oauth2.googleapis.com/token"
	DefaultRevokeURL   = "https://accounts.google.com/o/oauth2/revoke"
	DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v1/userinfo"
)

// OAuthConfig carries the client credentials and endpoint overrides.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	RevokeURL    string
	UserInfoURL  string
	HTTPClient   *http.Client
}

// OAuthProvider exchanges and revokes Google OAuth tokens.
type OAuthProvider struct {
	cfg    OAuthConfig
	client *http.Client
}

// NewOAuthProvider creates a provider, filling in default endpoints.
func NewOAuthProvider(cfg OAuthConfig) *OAuthProvider {
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.RevokeURL == "" {
		cfg.RevokeURL = DefaultRevokeURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = DefaultUserInfoURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &OAuthProvider{cfg: cfg, client: client}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

type userInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Authenticate redeems an authorization code for tokens. The code comes
// from the interactive consent flow driven by the CLI.
func (p *OAuthProvider) Authenticate(ctx context.Context) (*auth.ProviderToken, error) {
	code := CodeFromContext(ctx)
	if code == "" {
		return nil, errs.New(errs.AuthFailed, "no authorization code provided")
	}

	form := url.Values{}
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", "urn:ietf:wg:oauth:2.0:oob")

	tok, err := p.postTokenForm(ctx, form)
	if err != nil {
		return nil, err
	}

	providerToken := &auth.ProviderToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    time.Duration(tok.ExpiresIn) * time.Second,
	}

	// User identity is best-effort: a userinfo failure does not fail the
	// login, it just leaves the profile fields empty
	if info, err := p.fetchUserInfo(ctx, tok.AccessToken); err == nil {
		providerToken.UserID = info.ID
		providerToken.Email = info.Email
	}
	return providerToken, nil
}

// Refresh exchanges a refresh token for a fresh access token. Google may
// or may not rotate the refresh token; an empty one in the response
// means keep using the old one.
func (p *OAuthProvider) Refresh(ctx context.Context, refreshToken string) (*auth.ProviderToken, error) {
	if refreshToken == "" {
		return nil, errs.New(errs.AuthFailed, "no refresh token available")
	}

	form := url.Values{}
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)
	form.Set("refresh_token", refreshToken)
	form.Set("grant_type", "refresh_token")

	tok, err := p.postTokenForm(ctx, form)
	if err != nil {
		return nil, err
	}
	return &auth.ProviderToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    time.Duration(tok.ExpiresIn) * time.Second,
	}, nil
}

// Revoke invalidates the token at the provider.
func (p *OAuthProvider) Revoke(ctx context.Context, accessToken string) error {
	endpoint := p.cfg.RevokeURL + "?token=" + url.QueryEscape(accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return errs.Wrap(errs.NetworkError, "revoke request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return errs.Newf(errs.AuthFailed, "revoke failed: %s", strings.TrimSpace(string(body)))
	}
	return nil
}

func (p *OAuthProvider) postTokenForm(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.NetworkError, "token request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, classifyOAuthStatus(resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, errs.Wrap(errs.SerializationError, "malformed token response", err)
	}
	if tok.AccessToken == "" {
		return nil, errs.New(errs.AuthFailed, "token response missing access_token")
	}
	return &tok, nil
}

func (p *OAuthProvider) fetchUserInfo(ctx context.Context, accessToken string) (*userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %d", resp.StatusCode)
	}
	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

func classifyOAuthStatus(status int, body string) error {
	body = strings.TrimSpace(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusBadRequest:
		// Google reports bad grants (expired or revoked refresh tokens)
		// as 400 invalid_grant
		if strings.Contains(body, "invalid_grant") {
			return errs.Newf(errs.TokenExpired, "grant rejected: %s", body)
		}
		return errs.Newf(errs.AuthFailed, "authentication rejected: %s", body)
	case status == http.StatusForbidden:
		return errs.Newf(errs.PermissionDenied, "access denied: %s", body)
	case status == http.StatusTooManyRequests || status >= 500:
		return errs.Newf(errs.NetworkError, "provider unavailable (%d): %s", status, body)
	default:
		return errs.Newf(errs.Unknown, "unexpected status %d: %s", status, body)
	}
}

type codeContextKey struct{}

// WithAuthCode attaches an authorization code to the context for
// Authenticate to redeem.
func WithAuthCode(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, codeContextKey{}, code)
}

// CodeFromContext extracts the authorization code, if any.
func CodeFromContext(ctx context.Context) string {
	code, _ := ctx.Value(codeContextKey{}).(string)
	return code
}
