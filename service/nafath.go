package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/al0dan/absher/config"
)

// Nafath is the national single sign-on. When client credentials are absent
// the service runs in simulation mode: the redirect short-circuits to the
// callback with a fixed identity, which keeps local development working.

const (
	nafathAuthURL     = "https://api.nafath.sa/authorize"
	nafathTokenURL    = "https://api.nafath.sa/token"
	nafathUserInfoURL = "https://api.nafath.sa/userinfo"
)

type NafathService struct {
	oauth      *oauth2.Config
	userInfo   string
	httpClient *http.Client
}

// NafathIdentity is the verified identity returned by the SSO provider.
type NafathIdentity struct {
	NationalID string `json:"national_id"`
	Name       string `json:"name"`
	Simulated  bool   `json:"simulated,omitempty"`
}

func NewNafathService(cfg *config.NafathConfig) *NafathService {
	return &NafathService{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "national_id"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  nafathAuthURL,
				TokenURL: nafathTokenURL,
			},
		},
		userInfo: nafathUserInfoURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Configured reports whether real SSO credentials are present.
func (s *NafathService) Configured() bool {
	return s.oauth.ClientID != "" && s.oauth.ClientSecret != ""
}

// AuthURL returns the provider authorization URL for the given state.
func (s *NafathService) AuthURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// Exchange trades the callback code for a verified identity.
func (s *NafathService) Exchange(ctx context.Context, code string) (*NafathIdentity, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfo, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nafath userinfo error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read userinfo: %w", err)
	}

	var identity NafathIdentity
	if err := json.Unmarshal(body, &identity); err != nil {
		return nil, fmt.Errorf("failed to parse userinfo: %w", err)
	}

	return &identity, nil
}

// SimulatedIdentity returns the fixed identity used when credentials are
// missing.
func (s *NafathService) SimulatedIdentity() *NafathIdentity {
	return &NafathIdentity{
		NationalID: "1000000001",
		Name:       "مستخدم تجريبي",
		Simulated:  true,
	}
}
