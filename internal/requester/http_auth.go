package requester

import (
	"errors"
	"fmt"
	"net/http"
)

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// HTTPAuthManager implements the AuthManager interface
type HTTPAuthManager struct {
	authType    AuthType
	credentials Credentials
}

// NewHTTPAuthManager creates a new HTTPAuthManager
func NewHTTPAuthManager(endpoint *EndpointConfig) *HTTPAuthManager {
	return &HTTPAuthManager{
		authType:    endpoint.AuthType,
		credentials: endpoint.Credentials,
	}
}

// ApplyAuth adds authentication to the request
func (a *HTTPAuthManager) ApplyAuth(req *http.Request) error {
	c := a.credentials

	switch a.authType {
	case AuthTypeNone, "":
		return nil
	case AuthTypeBearer:
		if c.Token == "" {
			return errors.New("bearer token is empty")
		}
		req.Header.Set("Authorization", "Bearer "+c.Token)
	case AuthTypeAPIKey:
		if c.APIKey == "" {
			return errors.New("api key is empty")
		}
		if c.QueryParam != "" {
			q := req.URL.Query()
			q.Set(c.QueryParam, c.APIKey)
			req.URL.RawQuery = q.Encode()
			return nil
		}
		header := c.Header
		if header == "" {
			header = DefaultAPIKeyHeader
		}
		req.Header.Set(header, c.APIKey)
	default:
		return fmt.Errorf("unsupported auth type: %s", a.authType)
	}
	return nil
}
