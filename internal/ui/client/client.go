// the client package is used by the ui handlers to call the dance school API.
//
// Every call funnels through Client.Do so callers get one error shape (*ClientError) whatever the failure origin:
// StatusCode 0 for network, serialisation and JSON parse failures, the HTTP status when the API reported an error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client handles communication with the dance school API
type Client struct {
	baseURL    string
	origin     string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithOrigin sets the scheme and host used to reach a relative base URL such as "/api".
func WithOrigin(origin string) Option {
	return func(c *Client) {
		c.origin = strings.TrimSuffix(origin, "/")
	}
}

// WithHTTPClient replaces the default transport client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a client for the API at baseURL.
//
// The base URL is fixed for the lifetime of the client. The http.Client has no timeout:
// calls run until the API answers, the transport fails or the caller's context is cancelled.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes a single API call
type Request struct {
	Method string
	Path   string
	Query  Query
	Body   any
	Header http.Header
}

// RequestOption customises a single request
type RequestOption func(*Request)

// WithHeader sets a request header. Caller headers take precedence over the defaults.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Header == nil {
			r.Header = make(http.Header)
		}
		r.Header.Set(key, value)
	}
}

// WithBearerToken adds an Authorization header with the supplied access token
func WithBearerToken(accessToken string) RequestOption {
	return WithHeader("Authorization", "Bearer "+accessToken)
}

// Get issues a GET request. Query parameters are appended in the order they were added.
func (c *Client) Get(ctx context.Context, path string, query Query, opts ...RequestOption) (json.RawMessage, error) {
	return c.Do(ctx, newRequest(http.MethodGet, path, query, nil, opts))
}

// Post issues a POST request with body serialised as JSON
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (json.RawMessage, error) {
	return c.Do(ctx, newRequest(http.MethodPost, path, nil, body, opts))
}

// Put issues a PUT request with body serialised as JSON
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (json.RawMessage, error) {
	return c.Do(ctx, newRequest(http.MethodPut, path, nil, body, opts))
}

// Patch issues a PATCH request with body serialised as JSON
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (json.RawMessage, error) {
	return c.Do(ctx, newRequest(http.MethodPatch, path, nil, body, opts))
}

// Delete issues a DELETE request without a body
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (json.RawMessage, error) {
	return c.Do(ctx, newRequest(http.MethodDelete, path, nil, nil, opts))
}

func newRequest(method, path string, query Query, body any, opts []RequestOption) Request {
	req := Request{
		Method: method,
		Path:   path,
		Query:  query,
		Body:   body,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// Target returns the request target: the base URL, the path and the encoded query string.
func (c *Client) Target(path string, query Query) string {
	target := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return target
}

// transportURL resolves a relative target against the configured origin
func (c *Client) transportURL(target string) string {
	if strings.HasPrefix(target, "/") && c.origin != "" {
		return c.origin + target
	}
	return target
}

// Do executes req and returns the parsed JSON body of a 2xx response.
//
// Any failure is returned as a *ClientError.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	data, err := c.do(ctx, req)
	if err != nil {
		var clientErr *ClientError
		if errors.As(err, &clientErr) {
			return nil, clientErr
		}
		return nil, NewClientConnectionError(err)
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, req Request) (json.RawMessage, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("empty endpoint path")
	}

	var bodyReader io.Reader
	if req.Body != nil {
		jsonBody, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to serialise request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.transportURL(c.Target(req.Path, req.Query)), bodyReader)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for key, values := range req.Header {
		httpReq.Header.Del(key)
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	data, err := parseJSON(payload)
	if err != nil {
		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, NewClientApiError(res.StatusCode, data)
	}

	return data, nil
}

var jsonNull = json.RawMessage("null")

// parseJSON validates the response payload. An empty payload is treated as JSON null.
func parseJSON(payload []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return jsonNull, nil
	}
	var raw json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

var errEmptyBody = errors.New("response body is empty")

// DecodeRecord is Decode for calls that must return a record: an empty or null body is an error
// rather than a zero value.
func DecodeRecord[T any](raw json.RawMessage) (T, error) {
	var v T
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull) {
		return v, NewClientInternalError(errEmptyBody, fmt.Sprintf("decoding %T response", v))
	}
	return Decode[T](raw)
}

// Decode unmarshals a raw response body into T.
func Decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, NewClientInternalError(err, fmt.Sprintf("decoding %T response", v))
	}
	return v, nil
}
