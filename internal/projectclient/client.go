// Package projectclient is the REST client for the evaluation service of a
// project workspace.
package projectclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Jeffail/gabs/v2"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/eval-hub/eval-cloud/internal/abstractions"
	"github.com/eval-hub/eval-cloud/internal/constants"
	"github.com/eval-hub/eval-cloud/internal/serialization"
	"github.com/eval-hub/eval-cloud/internal/validation"
	"github.com/eval-hub/eval-cloud/pkg/api"
)

const (
	defaultAPIVersion  = "2024-07-01-preview"
	requestIDHeader    = "x-ms-client-request-id"
	datasetContentType = "application/x-ndjson"
)

// Client implements abstractions.EvaluationClient over HTTP.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	tokenSource oauth2.TokenSource
	apiVersion  string
	userAgent   string
	timeout     time.Duration
	validate    *validator.Validate
	logger      *slog.Logger
}

var _ abstractions.EvaluationClient = (*Client)(nil)

// Option is a functional option for configuring the client.
type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTokenSource sets the credential, nil sends unauthenticated requests.
func WithTokenSource(tokenSource oauth2.TokenSource) Option {
	return func(c *Client) {
		c.tokenSource = tokenSource
	}
}

func WithAPIVersion(apiVersion string) Option {
	return func(c *Client) {
		if apiVersion != "" {
			c.apiVersion = apiVersion
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout bounds every single request, zero means no limit.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewFromConnectionString creates a client from an
// "endpoint;subscription;resourceGroup;workspace" connection string.
func NewFromConnectionString(connStr string, opts ...Option) (*Client, error) {
	info, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, err
	}
	baseURL, err := info.BaseURL()
	if err != nil {
		return nil, err
	}
	validate, err := validation.NewValidator()
	if err != nil {
		return nil, err
	}

	client := &Client{
		baseURL:    baseURL,
		apiVersion: defaultAPIVersion,
		userAgent:  "eval-cloud",
		validate:   validate,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   client.timeout,
		}
	}
	return client, nil
}

// GetDefaultConnection resolves the default workspace connection of the given
// type, including its key for key based connections.
func (c *Client) GetDefaultConnection(ctx context.Context, connectionType api.ConnectionType) (*api.Connection, error) {
	query := url.Values{}
	query.Set("category", string(connectionType))
	query.Set("includeAll", "true")
	body, err := c.do(ctx, http.MethodGet, "/connections", query, nil, "")
	if err != nil {
		return nil, err
	}

	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		return nil, fmt.Errorf("decode connections: %w", err)
	}
	var selected *gabs.Container
	for _, item := range parsed.Path("value").Children() {
		if category, _ := item.Path("properties.category").Data().(string); category != string(connectionType) {
			continue
		}
		if selected == nil {
			selected = item
		}
		if isDefault, _ := item.Path("properties.isDefault").Data().(bool); isDefault {
			selected = item
			break
		}
	}
	if selected == nil {
		return nil, fmt.Errorf("no %s connection found in the workspace", connectionType)
	}

	connection := &api.Connection{
		ConnectionType: connectionType,
	}
	connection.ID, _ = selected.Path("id").Data().(string)
	connection.Name, _ = selected.Path("name").Data().(string)
	connection.EndpointURL, _ = selected.Path("properties.target").Data().(string)
	connection.AuthType, _ = selected.Path("properties.authType").Data().(string)

	if connection.AuthType == "ApiKey" {
		key, err := c.getConnectionKey(ctx, connection.Name)
		if err != nil {
			return nil, err
		}
		connection.Key = key
	}

	if err := c.validate.StructCtx(ctx, connection); err != nil {
		return nil, fmt.Errorf("invalid %s connection %q: %w", connectionType, connection.Name, err)
	}
	return connection, nil
}

func (c *Client) getConnectionKey(ctx context.Context, name string) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/connections/"+url.PathEscape(name)+"/listsecrets", nil, strings.NewReader(`{"ignored":""}`), "application/json")
	if err != nil {
		return "", err
	}
	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		return "", fmt.Errorf("decode connection secrets: %w", err)
	}
	key, _ := parsed.Path("properties.credentials.key").Data().(string)
	return key, nil
}

// UploadFile uploads a newline delimited JSON file and returns the dataset reference.
func (c *Client) UploadFile(ctx context.Context, path string) (*api.UploadedDataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	query := url.Values{}
	query.Set("name", name)
	body, err := c.do(ctx, http.MethodPost, "/data/upload", query, file, datasetContentType)
	if err != nil {
		return nil, err
	}
	dataset := &api.UploadedDataset{}
	if err := serialization.Unmarshal(ctx, c.logger, c.validate, body, dataset, "dataset"); err != nil {
		return nil, err
	}
	return dataset, nil
}

// CreateEvaluation submits the evaluation job.
func (c *Client) CreateEvaluation(ctx context.Context, evaluation *api.Evaluation) (*api.Evaluation, error) {
	if err := c.validate.StructCtx(ctx, evaluation); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(evaluation)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodPost, "/evaluations/runs:run", nil, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}
	return c.decodeEvaluation(ctx, body)
}

// GetEvaluation returns the current state of the evaluation job.
func (c *Client) GetEvaluation(ctx context.Context, id string) (*api.Evaluation, error) {
	body, err := c.do(ctx, http.MethodGet, "/evaluations/runs/"+url.PathEscape(id), nil, nil, "")
	if err != nil {
		return nil, err
	}
	return c.decodeEvaluation(ctx, body)
}

func (c *Client) decodeEvaluation(ctx context.Context, body []byte) (*api.Evaluation, error) {
	// the handle carries the only fields the workflow depends on
	handle := &api.JobHandle{}
	if err := serialization.Unmarshal(ctx, c.logger, c.validate, body, handle, "evaluation"); err != nil {
		return nil, err
	}
	evaluation := &api.Evaluation{}
	if err := serialization.Unmarshal(ctx, c.logger, nil, body, evaluation, "evaluation"); err != nil {
		return nil, err
	}
	return evaluation, nil
}

func (c *Client) do(ctx context.Context, method string, path string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	target := *c.baseURL
	target.Path += path
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", c.apiVersion)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokenSource != nil {
		token, err := c.tokenSource.Token()
		if err != nil {
			return nil, fmt.Errorf("acquire access token: %w", err)
		}
		token.SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Evaluation service request",
		constants.LOG_METHOD, method,
		constants.LOG_URI, target.Path,
		constants.LOG_REQUEST_ID, requestID,
		constants.LOG_RESP_CODE, resp.StatusCode,
		constants.LOG_ELAPSED, time.Since(start),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(method, path, resp.StatusCode, respBody)
	}
	return respBody, nil
}
