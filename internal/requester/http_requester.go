package requester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brizzai/aqua-scheduler/internal/logger"
	"go.uber.org/zap"
)

// HTTPRequester handles both request building and execution
type HTTPRequester struct {
	client  *http.Client
	builder *HTTPRequestBuilder
}

// NewHTTPRequester creates a new HTTPRequester; a zero timeout means 30s
func NewHTTPRequester(endpoint *EndpointConfig, authMgr AuthManager, timeout time.Duration) *HTTPRequester {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPRequester{
		client:  &http.Client{Timeout: timeout},
		builder: NewHTTPRequestBuilder(endpoint, authMgr),
	}
}

// Do builds and executes a request for route. Non-2xx statuses are not errors;
// callers inspect the Response.
func (r *HTTPRequester) Do(ctx context.Context, route *RouteConfig, body interface{}) (*Response, error) {
	req, err := r.builder.BuildRequest(ctx, route, body)
	if err != nil {
		return nil, err
	}
	logger.Debug("request route", zap.String("method", req.Method), zap.String("path", req.URL.Path))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Error("Failed to close response body", zap.Error(closeErr))
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       bodyBytes,
		Headers:    resp.Header,
	}, nil
}
