// Package backend talks to the remote options analysis service.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"fno-analyzer/internal/api"
	"fno-analyzer/internal/interfaces"
	"fno-analyzer/internal/types"
)

const (
	analyzePath   = "/analyze"
	positionsPath = "/positions"
	healthPath    = "/"
)

// DefaultBaseURL is used when no override is configured.
const DefaultBaseURL = "http://localhost:8000"

// RequestError is the only failure kind the client surfaces. Error() is the
// display message; the cause stays reachable through errors.Unwrap.
type RequestError struct {
	Op      string
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Params configures a Client.
type Params struct {
	BaseURL string
	// Timeout of zero means no client-side limit.
	Timeout time.Duration
	Logging bool
}

// Client implements interfaces.Backend over HTTP.
type Client struct {
	http *api.Client
}

// Compile-time interface check
var _ interfaces.Backend = (*Client)(nil)

// New builds a client for the service at p.BaseURL.
func New(p Params) *Client {
	base := p.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	opts := []api.ClientOption{
		api.WithBaseURL(base),
		api.WithLogging(p.Logging),
	}
	if p.Timeout > 0 {
		opts = append(opts, api.WithTimeout(p.Timeout))
	}
	return &Client{http: api.NewClient(opts...)}
}

// BaseURL returns the resolved service address.
func (c *Client) BaseURL() string {
	return c.http.BaseURL()
}

// Analyze issues POST /analyze with {stocks, strategy}.
func (c *Client) Analyze(ctx context.Context, req types.AnalysisRequest) ([]types.AnalysisResult, error) {
	resp, err := c.http.POST(ctx, analyzePath, req)
	if err != nil {
		return nil, requestError("analyze", err)
	}
	var env types.Envelope[types.AnalysisResult]
	if err := resp.ParseJSON(&env); err != nil {
		return nil, requestError("analyze", err)
	}
	if env.Data == nil {
		return []types.AnalysisResult{}, nil
	}
	return env.Data, nil
}

// Positions issues GET /positions.
func (c *Client) Positions(ctx context.Context) ([]types.Position, error) {
	resp, err := c.http.GET(ctx, positionsPath)
	if err != nil {
		return nil, requestError("positions", err)
	}
	var env types.Envelope[types.Position]
	if err := resp.ParseJSON(&env); err != nil {
		return nil, requestError("positions", err)
	}
	if env.Data == nil {
		return []types.Position{}, nil
	}
	return env.Data, nil
}

// Health issues GET / and reports the service status.
func (c *Client) Health(ctx context.Context) (types.HealthStatus, error) {
	resp, err := c.http.GET(ctx, healthPath)
	if err != nil {
		return types.HealthStatus{}, requestError("health", err)
	}
	var hs types.HealthStatus
	if err := resp.ParseJSON(&hs); err != nil {
		return types.HealthStatus{}, requestError("health", err)
	}
	return hs, nil
}

// requestError collapses transport, status and decoding failures into one
// human readable message.
func requestError(op string, err error) *RequestError {
	var se *api.StatusError
	var ue *url.Error
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	var msg string
	switch {
	case errors.As(err, &se):
		msg = fmt.Sprintf("Request failed with status code %d", se.StatusCode)
	case errors.Is(err, context.Canceled):
		msg = "Request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		msg = "Request timed out"
	case errors.As(err, &ue):
		msg = "Network error: " + ue.Err.Error()
	case errors.As(err, &syn), errors.As(err, &typ):
		msg = "Malformed response from analysis service"
	default:
		msg = err.Error()
	}
	return &RequestError{Op: op, Message: msg, Err: err}
}
