// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package gateway is the single outbound HTTP path to the TenantX backend.

Every call attaches the current access token and a request ID. When a call
fails with 401 the gateway attempts exactly one silent refresh, then retries
the original request once with the new token. It is the only component that
recovers from an expired session; everything else propagates errors unchanged.

Flow on 401:

 1. Auth endpoints (login, register, OTP, forgot-password) propagate as-is.
 2. A request that was already retried propagates. When the session already
    holds a newer token than the one sent, the request is retried once with it.
 3. With a refresh token: POST /auth/refresh. Success stores the new pair and
    retries; a 401 ends the session; other failures propagate. A pair that
    arrives after the user signed out is dropped and the call fails.
 4. Without a refresh token: the session ends immediately.
*/
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/taibuivan/tenantx/internal/platform/apperr"
	"github.com/taibuivan/tenantx/internal/platform/constants"
	"github.com/taibuivan/tenantx/pkg/uuid"
)

// ErrSessionEnded is returned when the session could not be recovered (the
// refresh was rejected or no refresh token existed). The session has already
// been logged out when this error is returned.
var ErrSessionEnded = errors.New("gateway: session ended")

// maxResponseBytes caps how much of a backend response is read.
const maxResponseBytes = 10 << 20

// Session is the part of the session store the gateway reads and writes.
//
// Epoch identifies the current sign-in; SetTokensIf applies a refreshed pair
// only while that sign-in is still current.
type Session interface {
	AccessToken() string
	RefreshToken() string
	SelectedOrganizationID() string
	Epoch() uint64
	SetTokensIf(ctx context.Context, epoch uint64, access, refresh string) (bool, error)
	Logout(ctx context.Context) error
}

// Caller is the request path the backend-call wrappers depend on.
type Caller interface {
	Do(ctx context.Context, req Request, out any) error
}

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any

	// Token overrides the session's access token for this call.
	Token string

	// NoRefresh disables the 401 recovery path. Used when forwarding a token
	// that does not belong to this client's session.
	NoRefresh bool
}

// Response is a backend answer.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client sends requests to the backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    Session
	log        *slog.Logger
	metrics    *Metrics
	onEnded    func(ctx context.Context)
	refreshes  singleflight.Group
}

// # Options

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying [*http.Client].
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithTimeout bounds every request, including the refresh call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithLogger sets the logger for gateway events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.log = logger }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(metrics *Metrics) Option {
	return func(c *Client) { c.metrics = metrics }
}

// WithSessionEndedHook registers the callback run after the gateway forces a
// logout; interactive clients use it to send the user back to login.
func WithSessionEndedHook(hook func(ctx context.Context)) Option {
	return func(c *Client) { c.onEnded = hook }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, session Session, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: constants.DefaultHTTPTimeout},
		session:    session,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// # Request Path

// Do sends req and decodes a successful JSON body into out (when non-nil).
// Non-2xx answers are returned as [*apperr.AppError].
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("gateway: decode %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}

// Send performs req with the 401 recovery path and returns the raw answer.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	token := req.Token
	if token == "" {
		token = c.session.AccessToken()
	}

	resp, err := c.send(ctx, req, token)
	if err == nil || !apperr.IsUnauthorized(err) {
		return resp, err
	}

	// 1. Only session-bearing calls are recoverable
	if req.NoRefresh || IsAuthEndpoint(req.Path) {
		return nil, err
	}

	// 2. Another caller may already have renewed the session
	if current := c.session.AccessToken(); current != "" && current != token {
		c.log.Debug("gateway_retry_with_renewed_token", slog.String("path", req.Path))
		return c.send(ctx, req, current)
	}

	// 3. One refresh, then one retry
	renewed, refreshErr := c.refresh(ctx)
	if refreshErr != nil {
		return nil, refreshErr
	}

	return c.send(ctx, req, renewed)
}

// Forward performs req once with its own token and returns the answer
// whatever its status. Only transport failures are errors. The BFF uses it to
// relay upstream answers verbatim.
func (c *Client) Forward(ctx context.Context, req Request) (*Response, error) {
	return c.exchange(ctx, req, req.Token)
}

// send performs one exchange and converts non-2xx answers into errors.
func (c *Client) send(ctx context.Context, req Request, token string) (*Response, error) {
	resp, err := c.exchange(ctx, req, token)
	if err != nil {
		return nil, err
	}

	if resp.Status < 200 || resp.Status > 299 {
		return nil, decodeError(resp.Status, resp.Body)
	}
	return resp, nil
}

// exchange performs one HTTP round trip with the given bearer token ("" for none).
func (c *Client) exchange(ctx context.Context, req Request, token string) (*Response, error) {
	httpReq, err := c.newHTTPRequest(ctx, req, token)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observeRequest(req.Method, 0, time.Since(start))
		return nil, fmt.Errorf("gateway: %s %s: %w", req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	c.metrics.observeRequest(req.Method, httpResp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("gateway: read %s %s: %w", req.Method, req.Path, err)
	}

	c.log.Debug("gateway_request_finished",
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.Int("status", httpResp.StatusCode),
		slog.String("request_id", httpReq.Header.Get(constants.HeaderXRequestID)),
	)

	return &Response{
		Status: httpResp.StatusCode,
		Header: httpResp.Header,
		Body:   body,
	}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request, token string) (*http.Request, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("gateway: encode %s %s: %w", req.Method, req.Path, err)
		}
		body = bytes.NewReader(payload)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("gateway: build %s %s: %w", method, req.Path, err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}

	requestID, _ := ctx.Value(requestIDKey{}).(string)
	if requestID == "" {
		requestID = uuid.New()
	}
	httpReq.Header.Set(constants.HeaderXRequestID, requestID)

	return httpReq, nil
}

// # Errors

// errorBody covers the backend's {error, code} envelope and the common
// {message} variant, where message may be a string or a list.
type errorBody struct {
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Message json.RawMessage `json:"message"`
}

// decodeError turns a non-2xx answer into an [*apperr.AppError].
func decodeError(status int, body []byte) *apperr.AppError {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return apperr.FromStatus(status, "", "")
	}

	message := parsed.Error
	if len(parsed.Message) > 0 {
		var single string
		var list []string
		switch {
		case json.Unmarshal(parsed.Message, &single) == nil && single != "":
			message = single
		case json.Unmarshal(parsed.Message, &list) == nil && len(list) > 0:
			message = strings.Join(list, "; ")
		}
	}

	return apperr.FromStatus(status, parsed.Code, message)
}

// # Request Correlation

type requestIDKey struct{}

// WithRequestID makes outbound calls made with ctx reuse id as X-Request-ID,
// so a BFF request and its upstream call share one correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}
