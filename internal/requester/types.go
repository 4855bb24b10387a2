package requester

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// AuthType represents the type of authentication to use
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeAPIKey AuthType = "api_key"
)

// DefaultAPIKeyHeader is the header Google APIs read the API key from
const DefaultAPIKeyHeader = "X-Goog-Api-Key"

// Credentials authenticate requests to an endpoint. Which fields apply depends on the AuthType.
type Credentials struct {
	// Token is sent as "Authorization: Bearer <Token>"
	Token string
	// APIKey is sent in Header, or in the QueryParam query parameter when one is set
	APIKey     string
	Header     string
	QueryParam string
}

// EndpointConfig describes the remote service every route is resolved against
type EndpointConfig struct {
	BaseURL     string
	AuthType    AuthType
	Credentials Credentials
	Headers     map[string]string
}

// RouteConfig holds the configuration for a specific route
type RouteConfig struct {
	Path    string
	Method  string
	Headers map[string]string
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the response body into v
func (r *Response) DecodeJSON(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", r.StatusCode, err)
	}
	return nil
}
