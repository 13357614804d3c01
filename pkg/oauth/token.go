// Package oauth supplies the bearer tokens the register presents to the
// pharmacy backend.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	ErrRefreshFailed      = errors.New("token refresh failed")
	ErrRefreshUnsupported = errors.New("token provider cannot refresh")
	ErrNotConfigured      = errors.New("backend authentication is not configured")
)

// TokenProvider hands out the current access token and replaces it on demand.
type TokenProvider interface {
	// Token returns the current access token. An empty token is valid and
	// means the request goes out unauthenticated.
	Token(ctx context.Context) (string, error)
	// Refresh obtains a new access token and returns it.
	Refresh(ctx context.Context) (string, error)
}

// StaticProvider always returns the same token.
type StaticProvider struct {
	token string
}

// NewStaticProvider creates a provider for a fixed token.
func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: token}
}

func (p *StaticProvider) Token(context.Context) (string, error) {
	return p.token, nil
}

func (p *StaticProvider) Refresh(context.Context) (string, error) {
	return "", ErrRefreshUnsupported
}

// ClientCredentialsConfig holds the settings of an OAuth2 client-credentials client.
type ClientCredentialsConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// ClientCredentialsProvider obtains tokens with the client-credentials grant.
type ClientCredentialsProvider struct {
	config *clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

// NewClientCredentialsProvider creates a client-credentials provider.
func NewClientCredentialsProvider(cfg ClientCredentialsConfig) (*ClientCredentialsProvider, error) {
	if cfg.ClientID == "" || cfg.TokenURL == "" {
		return nil, ErrNotConfigured
	}
	return &ClientCredentialsProvider{
		config: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		},
	}, nil
}

func (p *ClientCredentialsProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	tok := p.token
	p.mu.Unlock()
	if tok.Valid() {
		return tok.AccessToken, nil
	}
	return p.Refresh(ctx)
}

// Refresh always goes to the token endpoint, even when the cached token has
// not expired yet: the backend just rejected it.
func (p *ClientCredentialsProvider) Refresh(ctx context.Context) (string, error) {
	tok, err := p.config.Token(ctx)
	if err != nil {
		p.mu.Lock()
		p.token = nil
		p.mu.Unlock()
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	p.mu.Lock()
	p.token = tok
	p.mu.Unlock()
	return tok.AccessToken, nil
}

// GatewayConfig holds the settings of the API gateway session refresh.
type GatewayConfig struct {
	GatewayURL    string
	RefreshCookie string // Cookie header sent with the refresh call, e.g. "REFRESH=..."
	InitialToken  string
	HTTPClient    *http.Client
}

// GatewayProvider refreshes the access token through the gateway's
// /auth/refresh endpoint, which exchanges the session's refresh cookie.
type GatewayProvider struct {
	url    string
	cookie string
	client *http.Client

	mu    sync.Mutex
	token string
}

// NewGatewayProvider creates a gateway-backed provider.
func NewGatewayProvider(cfg GatewayConfig) *GatewayProvider {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	url := "/auth/refresh"
	if cfg.GatewayURL != "" {
		url = strings.TrimRight(cfg.GatewayURL, "/") + "/auth/refresh"
	}
	return &GatewayProvider{
		url:    url,
		cookie: cfg.RefreshCookie,
		client: client,
		token:  cfg.InitialToken,
	}
}

func (p *GatewayProvider) Token(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token, nil
}

func (p *GatewayProvider) Refresh(ctx context.Context) (string, error) {
	tok, err := p.fetch(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.token = ""
		return "", err
	}
	p.token = tok
	return tok, nil
}

func (p *GatewayProvider) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if p.cookie != "" {
		req.Header.Set("Cookie", p.cookie)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d, body: %s", ErrRefreshFailed, resp.StatusCode, string(body))
	}

	var body struct {
		AccessToken string `json:"access_token"`
		Token       string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	if body.AccessToken != "" {
		return body.AccessToken, nil
	}
	if body.Token != "" {
		return body.Token, nil
	}
	return "", fmt.Errorf("%w: response carried no token", ErrRefreshFailed)
}
