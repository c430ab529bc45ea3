package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	domainerrors "item-catalog/internal/errors"
	"item-catalog/internal/model"
	"item-catalog/internal/repository"
)

// Google endpoints used when no override is configured.
const (
	GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	GoogleRevokeURL   = "https://oauth2.googleapis.com/revoke"
)

// GoogleScopes are requested during authorization.
var GoogleScopes = []string{
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/userinfo.email",
}

// HTTPClient interface for making HTTP requests (allows mocking in tests).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Identity is the profile reported by the identity provider.
type Identity struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// Login is the outcome of a completed authorization.
type Login struct {
	User         *model.User
	Identity     Identity
	Token        string
	RefreshToken string
	NewUser      bool
}

// AuthService runs the OAuth2 authorization code flow against the provider
// and maps provider identities onto local users.
type AuthService struct {
	oauth       *oauth2.Config
	users       *repository.UserRepository
	userInfoURL string
	revokeURL   string
	httpClient  HTTPClient
	log         *slog.Logger
}

// AuthEndpoints overrides the provider's userinfo and revoke URLs.
type AuthEndpoints struct {
	UserInfoURL string
	RevokeURL   string
}

func NewAuthService(cfg *oauth2.Config, endpoints AuthEndpoints, users *repository.UserRepository, log *slog.Logger) *AuthService {
	if endpoints.UserInfoURL == "" {
		endpoints.UserInfoURL = GoogleUserInfoURL
	}
	if endpoints.RevokeURL == "" {
		endpoints.RevokeURL = GoogleRevokeURL
	}
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{
		oauth:       cfg,
		users:       users,
		userInfoURL: endpoints.UserInfoURL,
		revokeURL:   endpoints.RevokeURL,
		httpClient:  http.DefaultClient,
		log:         log,
	}
}

// WithHTTPClient replaces the client used for userinfo and revoke calls.
func (s *AuthService) WithHTTPClient(c HTTPClient) *AuthService {
	s.httpClient = c
	return s
}

// NewState returns a random anti-forgery token for one authorization attempt.
func NewState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// AuthURL returns the provider URL the browser is sent to.
func (s *AuthService) AuthURL(state string) string {
	return s.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// Complete exchanges the authorization code, fetches the profile and returns
// the matching local user, creating it on first login.
func (s *AuthService) Complete(ctx context.Context, code string) (*Login, error) {
	if code == "" {
		return nil, domainerrors.UpstreamAuth("missing authorization code")
	}
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, domainerrors.UpstreamAuth("token exchange failed").WithCause(err)
	}

	identity, err := s.fetchIdentity(ctx, token)
	if err != nil {
		return nil, err
	}
	if identity.Email == "" {
		return nil, domainerrors.UpstreamAuth("provider did not return an email address")
	}
	name := identity.Name
	if name == "" {
		name = identity.Email
	}

	user, created, err := s.users.FindOrCreateByEmail(ctx, model.User{
		Name:    name,
		Email:   identity.Email,
		Picture: identity.Picture,
	})
	if err != nil {
		return nil, fmt.Errorf("find or create user: %w", err)
	}
	if created {
		s.log.Info("user created", slog.Uint64("user_id", uint64(user.ID)), slog.String("email", user.Email))
	}

	return &Login{
		User:         user,
		Identity:     *identity,
		Token:        token.AccessToken,
		RefreshToken: token.RefreshToken,
		NewUser:      created,
	}, nil
}

func (s *AuthService) fetchIdentity(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	token.SetAuthHeader(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.UpstreamAuth("failed to fetch user info").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domainerrors.UpstreamAuth(fmt.Sprintf("userinfo returned status %d", resp.StatusCode))
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, domainerrors.UpstreamAuth("failed to decode user info").WithCause(err)
	}
	return &identity, nil
}

// Revoke asks the provider to invalidate token. Any status other than 200 is
// reported as an upstream error.
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domainerrors.UpstreamAuth("revoke request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domainerrors.UpstreamAuth(fmt.Sprintf("revoke returned status %d", resp.StatusCode))
	}
	return nil
}
