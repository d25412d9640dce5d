package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	log "github.com/sirupsen/logrus"
)

// emptyPayloadHash is the SHA256 hash of an empty payload.
const emptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// sessionTokenHeader carries the token returned by Authenticate.
const sessionTokenHeader = "sessionToken"

// Client talks JSON over HTTP to the repository and authentication services.
type Client struct {
	repoURL      string
	authURL      string
	httpClient   *http.Client
	debug        bool
	sessionToken string

	// Request signing is enabled by EnableSigning.
	signing   bool
	awsConfig aws.Config
	region    string
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// RepoEndpoint is the repository service base URL (e.g. https://repo.example.org/repo/v1).
	RepoEndpoint string

	// AuthEndpoint is the authentication service base URL (e.g. https://repo.example.org/auth/v1).
	AuthEndpoint string

	// Timeout bounds a single request. Zero means DefaultTimeout.
	Timeout time.Duration

	// Debug logs every request at debug level.
	Debug bool
}

// DefaultTimeout is used when ClientConfig.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Body       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a new repository client. Requests are unauthenticated
// until Authenticate succeeds.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		repoURL:    strings.TrimRight(cfg.RepoEndpoint, "/"),
		authURL:    strings.TrimRight(cfg.AuthEndpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
		debug:      cfg.Debug,
	}
}

// EnableSigning signs every subsequent request with AWS SigV4 for
// deployments fronted by API Gateway.
func (c *Client) EnableSigning(awsCfg aws.Config, region string) {
	c.signing = true
	c.awsConfig = awsCfg
	c.region = region
}

// RepoEndpoint returns the base URL of the repository service.
func (c *Client) RepoEndpoint() string {
	return c.repoURL
}

// Authenticated reports whether a session token is held.
func (c *Client) Authenticated() bool {
	return c.sessionToken != ""
}

// Request makes a request against the repository service.
func (c *Client) Request(ctx context.Context, method, path string, body, result any) error {
	return c.do(ctx, method, c.resolve(c.repoURL, path), nil, body, result)
}

func (c *Client) do(ctx context.Context, method, rawURL string, headers map[string]string, body, result any) error {
	apiURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid API URL: %w", err)
	}

	var (
		reqBody  io.Reader
		jsonData []byte
	)

	if body != nil {
		jsonData, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}

		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL.String(), reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.sessionToken != "" {
		req.Header.Set(sessionTokenHeader, c.sessionToken)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if c.signing {
		if err := c.sign(ctx, req, jsonData); err != nil {
			return err
		}
	}

	if c.debug {
		log.WithFields(log.Fields{"method": method, "url": apiURL.String()}).Debugf("request body: %s", jsonData)
	}

	// Execute request.
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	defer resp.Body.Close()

	// Read response body.
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if c.debug {
		log.WithFields(log.Fields{"status": resp.StatusCode, "url": apiURL.String()}).Debugf("response body: %s", respBody)
	}

	// Check for errors.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}

		// Try to extract error message from JSON response.
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
			Reason  string `json:"reason"`
		}

		if json.Unmarshal(respBody, &errResp) == nil {
			switch {
			case errResp.Error != "":
				apiErr.Message = errResp.Error
			case errResp.Message != "":
				apiErr.Message = errResp.Message
			case errResp.Reason != "":
				apiErr.Message = errResp.Reason
			}
		}

		return apiErr
	}

	// Decode response if expected.
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// sign signs req with AWS SigV4.
func (c *Client) sign(ctx context.Context, req *http.Request, payload []byte) error {
	creds, err := c.awsConfig.Credentials.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve credentials: %w", err)
	}

	// Calculate payload hash for SigV4.
	payloadHash := emptyPayloadHash
	if payload != nil {
		payloadHash = fmt.Sprintf("%x", sha256.Sum256(payload))
	}

	signer := v4.NewSigner()
	if err := signer.SignHTTP(ctx, creds, req, payloadHash, "execute-api", c.region, time.Now()); err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}

	return nil
}

// resolve joins path onto base. Absolute URLs are used as-is, and paths the
// service returns with the base path already on them (such as
// "/repo/v1/dataset/1/annotations") are joined onto the base host only.
func (c *Client) resolve(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	u, err := url.Parse(base)
	if err != nil || u.Path == "" || u.Path == "/" {
		return base + path
	}

	if strings.HasPrefix(path, u.Path+"/") {
		return u.Scheme + "://" + u.Host + path
	}

	return base + path
}

// Get makes a GET request.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.Request(ctx, http.MethodGet, path, nil, result)
}

// Post makes a POST request.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.Request(ctx, http.MethodPost, path, body, result)
}

// Put makes a PUT request.
func (c *Client) Put(ctx context.Context, path string, body, result any) error {
	return c.Request(ctx, http.MethodPut, path, body, result)
}

// Delete makes a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Request(ctx, http.MethodDelete, path, nil, nil)
}

// IsNotFoundError checks if an error is a 404 Not Found error.
func IsNotFoundError(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.StatusCode == http.StatusNotFound
	}

	return false
}

// IsUnauthorizedError checks if an error is a 401 Unauthorized error.
func IsUnauthorizedError(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.StatusCode == http.StatusUnauthorized
	}

	return false
}

// IsForbiddenError checks if an error is a 403 Forbidden error.
func IsForbiddenError(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.StatusCode == http.StatusForbidden
	}

	return false
}

// IsPreconditionFailedError checks if an error is a 412 returned for a
// stale ETag.
func IsPreconditionFailedError(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.StatusCode == http.StatusPreconditionFailed
	}

	return false
}
