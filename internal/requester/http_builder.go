package requester

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPRequestBuilder turns a route and a JSON body into an authenticated request
type HTTPRequestBuilder struct {
	endpoint *EndpointConfig
	authMgr  AuthManager
}

// NewHTTPRequestBuilder creates a new HTTPRequestBuilder
func NewHTTPRequestBuilder(endpoint *EndpointConfig, authMgr AuthManager) *HTTPRequestBuilder {
	return &HTTPRequestBuilder{
		endpoint: endpoint,
		authMgr:  authMgr,
	}
}

// BuildRequest builds the HTTP request for route. A nil body sends no payload.
func (b *HTTPRequestBuilder) BuildRequest(ctx context.Context, route *RouteConfig, body interface{}) (*http.Request, error) {
	if route == nil {
		return nil, fmt.Errorf("route config is nil")
	}

	method := route.Method
	if method == "" {
		method = http.MethodPost
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, b.buildURL(route.Path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	// route headers win over endpoint headers
	for k, v := range b.endpoint.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range route.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	if err := b.authMgr.ApplyAuth(httpReq); err != nil {
		return nil, fmt.Errorf("failed to apply authentication: %w", err)
	}
	return httpReq, nil
}

func (b *HTTPRequestBuilder) buildURL(path string) string {
	return strings.TrimSuffix(b.endpoint.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
