package projectclient

import (
	"context"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/eval-hub/eval-cloud/internal/config"
)

// NewTokenSource picks the credential for the service: a static bearer token
// when one is configured, the service principal client credentials flow when
// tenant, client id and secret are set, otherwise nil and requests go out
// unauthenticated so that the service reports the problem.
func NewTokenSource(ctx context.Context, auth *config.AuthConfig) oauth2.TokenSource {
	if auth == nil {
		return nil
	}
	if auth.AccessToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: auth.AccessToken, TokenType: "Bearer"})
	}
	if auth.TenantID == "" || auth.ClientID == "" || auth.ClientSecret == "" {
		return nil
	}
	credentialsConfig := &clientcredentials.Config{
		ClientID:     auth.ClientID,
		ClientSecret: auth.ClientSecret,
		TokenURL:     strings.TrimRight(auth.AuthorityHost, "/") + "/" + auth.TenantID + "/oauth2/v2.0/token",
		Scopes:       []string{auth.Scope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return credentialsConfig.TokenSource(ctx)
}
