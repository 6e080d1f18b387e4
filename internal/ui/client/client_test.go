package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// capturedRequest records what the test server received
type capturedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Body     []byte
	Header   http.Header
}

// newTestServer starts an API stub that records the request and replies with status and body
func newTestServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.Method = r.Method
			captured.Path = r.URL.Path
			captured.RawQuery = r.URL.RawQuery
			captured.Body, _ = io.ReadAll(r.Body)
			captured.Header = r.Header.Clone()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestTarget(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		path    string
		query   Query
		want    string
	}{
		{
			name:    "get with one parameter",
			baseURL: "/api",
			path:    "/students",
			query:   NewQuery("page", "2"),
			want:    "/api/students?page=2",
		},
		{
			name:    "no query",
			baseURL: "/api",
			path:    "/modalities",
			want:    "/api/modalities",
		},
		{
			name:    "empty query adds no question mark",
			baseURL: "/api",
			path:    "/modalities",
			query:   Query{},
			want:    "/api/modalities",
		},
		{
			name:    "insertion order preserved",
			baseURL: "/api",
			path:    "/students",
			query:   NewQuery("z", "1", "a", "2", "m", "3"),
			want:    "/api/students?z=1&a=2&m=3",
		},
		{
			name:    "values are url encoded",
			baseURL: "/api",
			path:    "/modalities",
			query:   NewQuery("search", "ballet clássico", "tag", "a&b=c"),
			want:    "/api/modalities?search=ballet+cl%C3%A1ssico&tag=a%26b%3Dc",
		},
		{
			name:    "absolute base url",
			baseURL: "https://school.example.com/api/",
			path:    "/students",
			query:   NewQuery("page", "1"),
			want:    "https://school.example.com/api/students?page=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.baseURL)
			if got := c.Target(tt.path, tt.query); got != tt.want {
				t.Errorf("Target() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMethodsComposeRequest(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name       string
		call       func(c *Client) (json.RawMessage, error)
		wantMethod string
		wantQuery  string
		wantBody   string
	}{
		{
			name: "get",
			call: func(c *Client) (json.RawMessage, error) {
				return c.Get(context.Background(), "/students", NewQuery("page", "2", "size", "10"))
			},
			wantMethod: http.MethodGet,
			wantQuery:  "page=2&size=10",
		},
		{
			name: "post",
			call: func(c *Client) (json.RawMessage, error) {
				return c.Post(context.Background(), "/students", payload{Name: "Ana"})
			},
			wantMethod: http.MethodPost,
			wantBody:   `{"name":"Ana"}`,
		},
		{
			name: "put",
			call: func(c *Client) (json.RawMessage, error) {
				return c.Put(context.Background(), "/students", payload{Name: "Bia"})
			},
			wantMethod: http.MethodPut,
			wantBody:   `{"name":"Bia"}`,
		},
		{
			name: "patch",
			call: func(c *Client) (json.RawMessage, error) {
				return c.Patch(context.Background(), "/students", map[string]bool{"active": false})
			},
			wantMethod: http.MethodPatch,
			wantBody:   `{"active":false}`,
		},
		{
			name: "delete",
			call: func(c *Client) (json.RawMessage, error) {
				return c.Delete(context.Background(), "/students")
			},
			wantMethod: http.MethodDelete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured capturedRequest
			ts := newTestServer(t, http.StatusOK, `{"ok":true}`, &captured)

			c := NewClient("/api", WithOrigin(ts.URL))
			res, err := tt.call(c)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if string(res) != `{"ok":true}` {
				t.Errorf("got body %s, want {\"ok\":true}", res)
			}
			if captured.Method != tt.wantMethod {
				t.Errorf("got method %s, want %s", captured.Method, tt.wantMethod)
			}
			if captured.Path != "/api/students" {
				t.Errorf("got path %s, want /api/students", captured.Path)
			}
			if captured.RawQuery != tt.wantQuery {
				t.Errorf("got query %q, want %q", captured.RawQuery, tt.wantQuery)
			}
			if string(captured.Body) != tt.wantBody {
				t.Errorf("got body %q, want %q", captured.Body, tt.wantBody)
			}
			if got := captured.Header.Get("Content-Type"); got != "application/json" {
				t.Errorf("got Content-Type %q, want application/json", got)
			}
		})
	}
}

func TestHeaderOverrides(t *testing.T) {
	var captured capturedRequest
	ts := newTestServer(t, http.StatusOK, `{}`, &captured)

	c := NewClient(ts.URL + "/api")
	_, err := c.Post(context.Background(), "/uploads", map[string]string{"a": "b"},
		WithHeader("Content-Type", "application/merge-patch+json"),
		WithBearerToken("token-123"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := captured.Header.Get("Content-Type"); got != "application/merge-patch+json" {
		t.Errorf("got Content-Type %q, want caller override", got)
	}
	if got := captured.Header.Values("Content-Type"); len(got) != 1 {
		t.Errorf("got %d Content-Type values, want 1", len(got))
	}
	if got := captured.Header.Get("Authorization"); got != "Bearer token-123" {
		t.Errorf("got Authorization %q, want Bearer token-123", got)
	}
}

func TestSuccessReturnsBodyUnchanged(t *testing.T) {
	bodies := []string{
		`{"items":[{"id":"1","name":"Jazz"}],"page":1}`,
		`[1,2,3]`,
		`"plain string"`,
		`42`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			ts := newTestServer(t, http.StatusOK, body, nil)
			c := NewClient(ts.URL)

			res, err := c.Get(context.Background(), "/anything", nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(res) != body {
				t.Errorf("got %s, want %s", res, body)
			}
		})
	}
}

func TestEmptyBodyIsNull(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	res, err := c.Delete(context.Background(), "/modalities/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res) != "null" {
		t.Errorf("got %s, want null", res)
	}
}

func TestFailureStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{
			name:        "not found with message",
			status:      http.StatusNotFound,
			body:        `{"message":"Not found"}`,
			wantMessage: "Not found",
		},
		{
			name:        "validation error with extra fields",
			status:      http.StatusBadRequest,
			body:        `{"message":"name is required","fields":["name"]}`,
			wantMessage: "name is required",
		},
		{
			name:        "no message field",
			status:      http.StatusInternalServerError,
			body:        `{"error":"boom"}`,
			wantMessage: DefaultErrorMessage,
		},
		{
			name:        "empty message field",
			status:      http.StatusConflict,
			body:        `{"message":""}`,
			wantMessage: DefaultErrorMessage,
		},
		{
			name:        "non string message",
			status:      http.StatusBadRequest,
			body:        `{"message":12}`,
			wantMessage: DefaultErrorMessage,
		},
		{
			name:        "array body",
			status:      http.StatusUnprocessableEntity,
			body:        `["bad"]`,
			wantMessage: DefaultErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.status, tt.body, nil)
			c := NewClient(ts.URL)

			res, err := c.Get(context.Background(), "/students", nil)
			if err == nil {
				t.Fatalf("expected error, got body %s", res)
			}

			var ce *ClientError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ClientError, got %T", err)
			}
			if ce.StatusCode != tt.status {
				t.Errorf("got status %d, want %d", ce.StatusCode, tt.status)
			}
			if ce.Message != tt.wantMessage {
				t.Errorf("got message %q, want %q", ce.Message, tt.wantMessage)
			}
			if string(ce.Data) != tt.body {
				t.Errorf("got data %s, want %s", ce.Data, tt.body)
			}
			if ce.IsTransport() {
				t.Error("application failure reported as transport failure")
			}
		})
	}
}

func TestTransportFailures(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := ts.URL
		ts.Close()

		c := NewClient(url)
		_, err := c.Get(context.Background(), "/students", nil)
		assertTransportError(t, err)
	})

	t.Run("invalid json in success response", func(t *testing.T) {
		ts := newTestServer(t, http.StatusOK, `{invalid json}`, nil)
		c := NewClient(ts.URL)

		_, err := c.Get(context.Background(), "/students", nil)
		ce := assertTransportError(t, err)
		if ce.Data != nil {
			t.Errorf("got data %s, want nil", ce.Data)
		}
	})

	t.Run("invalid json in error response", func(t *testing.T) {
		ts := newTestServer(t, http.StatusBadGateway, `<html>bad gateway</html>`, nil)
		c := NewClient(ts.URL)

		_, err := c.Get(context.Background(), "/students", nil)
		assertTransportError(t, err)
	})

	t.Run("unserialisable body", func(t *testing.T) {
		var captured capturedRequest
		ts := newTestServer(t, http.StatusOK, `{}`, &captured)
		c := NewClient(ts.URL)

		_, err := c.Post(context.Background(), "/students", make(chan int))
		assertTransportError(t, err)
		if captured.Method != "" {
			t.Error("request was sent despite serialisation failure")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ts := newTestServer(t, http.StatusOK, `{}`, nil)
		c := NewClient(ts.URL)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.Get(ctx, "/students", nil)
		ce := assertTransportError(t, err)
		if !errors.Is(ce, context.Canceled) {
			t.Errorf("expected wrapped context.Canceled, got %v", ce.Err)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		c := NewClient("/api")
		_, err := c.Get(context.Background(), "", nil)
		assertTransportError(t, err)
	})
}

// errorRoundTripper fails every request with the supplied error
type errorRoundTripper struct {
	err error
}

func (e errorRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, e.err
}

func TestTransportErrorMessage(t *testing.T) {
	t.Run("message taken from the underlying error", func(t *testing.T) {
		c := NewClient("http://api.invalid", WithHTTPClient(&http.Client{
			Transport: errorRoundTripper{err: errors.New("connection reset by peer")},
		}))

		_, err := c.Get(context.Background(), "/students", nil)
		ce := assertTransportError(t, err)
		if ce.Message == NetworkErrorMessage {
			t.Errorf("expected message derived from the transport error, got fallback")
		}
	})

	t.Run("fallback message when the error has none", func(t *testing.T) {
		ce := NewClientConnectionError(errors.New(""))
		if ce.Message != NetworkErrorMessage {
			t.Errorf("got message %q, want %q", ce.Message, NetworkErrorMessage)
		}
		if ce.StatusCode != 0 {
			t.Errorf("got status %d, want 0", ce.StatusCode)
		}
	})
}

func assertTransportError(t *testing.T, err error) *ClientError {
	t.Helper()

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var ce *ClientError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ClientError, got %T", err)
	}
	if ce.StatusCode != 0 {
		t.Errorf("got status %d, want 0", ce.StatusCode)
	}
	if !ce.IsTransport() {
		t.Error("IsTransport() = false, want true")
	}
	if ce.Message == "" {
		t.Error("transport error has empty message")
	}
	return ce
}

func TestDecode(t *testing.T) {
	type modality struct {
		Name string `json:"name"`
	}

	got, err := Decode[modality](json.RawMessage(`{"name":"Forró"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Forró" {
		t.Errorf("got name %q, want Forró", got.Name)
	}

	_, err = Decode[modality](json.RawMessage(`[1,2]`))
	assertTransportError(t, err)
}

func TestDecodeRecord(t *testing.T) {
	type modality struct {
		ID string `json:"id"`
	}

	for _, raw := range []string{"null", "", "  "} {
		if _, err := DecodeRecord[modality](json.RawMessage(raw)); err == nil {
			t.Errorf("DecodeRecord(%q) returned no error", raw)
		} else {
			assertTransportError(t, err)
		}
	}

	got, err := DecodeRecord[modality](json.RawMessage(`{"id":"m1"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "m1" {
		t.Errorf("got id %q, want m1", got.ID)
	}
}
