package projectclient

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/eval-hub/eval-cloud/internal/messages"
	"github.com/eval-hub/eval-cloud/internal/serviceerrors"
)

// ConnectionInfo is the parsed form of a project connection string
type ConnectionInfo struct {
	Endpoint       string
	SubscriptionID string
	ResourceGroup  string
	WorkspaceName  string
}

// ParseConnectionString splits "endpoint;subscription;resourceGroup;workspace".
// Empty parts are kept, the service reports them.
func ParseConnectionString(connStr string) (*ConnectionInfo, error) {
	parts := strings.Split(connStr, ";")
	if len(parts) != 4 {
		return nil, serviceerrors.NewServiceError(messages.InvalidConnectionString, "Value", connStr, "Error", fmt.Sprintf("expected 4 parts, got %d", len(parts)))
	}
	return &ConnectionInfo{
		Endpoint:       strings.TrimSpace(parts[0]),
		SubscriptionID: strings.TrimSpace(parts[1]),
		ResourceGroup:  strings.TrimSpace(parts[2]),
		WorkspaceName:  strings.TrimSpace(parts[3]),
	}, nil
}

// BaseURL returns the workspace scoped root of the REST API. Endpoints
// without a scheme default to https.
func (c *ConnectionInfo) BaseURL() (*url.URL, error) {
	endpoint := c.Endpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	base, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, serviceerrors.NewServiceErrorWithCause(err, messages.InvalidConnectionString, "Value", c.Endpoint)
	}
	base.Path += "/agents/v1.0" +
		"/subscriptions/" + url.PathEscape(c.SubscriptionID) +
		"/resourceGroups/" + url.PathEscape(c.ResourceGroup) +
		"/providers/Microsoft.MachineLearningServices" +
		"/workspaces/" + url.PathEscape(c.WorkspaceName)
	return base, nil
}
