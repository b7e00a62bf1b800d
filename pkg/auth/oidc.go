package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fra-atlas/platform/pkg/common/models"
	"golang.org/x/oauth2"
)

// OIDCAuthenticator resolves bearer tokens against an external OIDC
// provider's userinfo endpoint. Used when the deployment delegates
// identity to a national SSO instead of the shared-secret JWT path.
type OIDCAuthenticator struct {
	issuer     string
	httpClient *http.Client
}

func NewOIDCAuthenticator(issuer string) (*OIDCAuthenticator, error) {
	if issuer == "" {
		return nil, errors.New("oidc issuer required")
	}
	return &OIDCAuthenticator{
		issuer:     strings.TrimRight(issuer, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type userinfo struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

func (a *OIDCAuthenticator) Validate(ctx context.Context, token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, errors.New("token empty")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.issuer+"/userinfo", nil)
	if err != nil {
		return models.Identity{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.Identity{}, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Identity{}, fmt.Errorf("userinfo rejected token: status %d", resp.StatusCode)
	}

	var info userinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return models.Identity{}, fmt.Errorf("decoding userinfo: %w", err)
	}
	if info.Subject == "" {
		return models.Identity{}, errors.New("userinfo missing subject")
	}

	return models.Identity{
		UserID: info.Subject,
		Role:   info.Role,
		Email:  info.Email,
	}, nil
}
