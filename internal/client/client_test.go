package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

type countingToken struct {
	calls int
	token string
}

func (c *countingToken) Token(context.Context) (string, error) {
	c.calls++
	return c.token, nil
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{}, nil)

	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, float64(30), c.httpClient.Timeout.Seconds())
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{"cart":[]}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL}, staticToken("secret"))

	_, err := c.Get(context.Background(), "/cart", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

type failingToken struct{}

func (failingToken) Token(context.Context) (string, error) {
	return "", errors.New("session database is locked")
}

func TestClient_TokenErrorIsTyped(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL}, failingToken{})

	_, err := c.Get(context.Background(), "/cart", nil)
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 0, StatusOf(err))
	assert.Equal(t, "fallback", MessageOf(err, "fallback"))
	assert.Contains(t, err.Error(), "session database is locked")
	assert.Zero(t, calls)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var hasAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL}, staticToken(""))

	_, err := c.Get(context.Background(), "/book/get-all", nil)
	require.NoError(t, err)
	assert.False(t, hasAuth)
}

func TestClient_ReadsTokenOnEveryRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tokens := &countingToken{token: "t"}
	c := New(Config{BaseURL: server.URL}, tokens)

	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), "/cart", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, tokens.calls)
}

func TestClient_ServerErrorCarriesMessage(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Book is out of stock"}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL}, nil)

	_, err := c.Post(context.Background(), "/cart", map[string]string{"bookId": "b1"})
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Book is out of stock", apiErr.Message)
	assert.Equal(t, "Book is out of stock", MessageOf(err, "fallback"))
	assert.False(t, errors.Is(err, ErrTransport))
	assert.Equal(t, 1, calls, "no retries")
}

func TestClient_ErrorWithoutMessageUsesStatusText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL}, nil)

	_, err := c.Get(context.Background(), "/cart", nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Unauthorized", MessageOf(err, "fallback"))
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := New(Config{BaseURL: url}, nil)

	_, err := c.Get(context.Background(), "/cart", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Equal(t, 0, StatusOf(err))
	assert.Equal(t, "generic", MessageOf(err, "generic"))
}

func TestClient_Upload(t *testing.T) {
	var name, file string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		name = r.FormValue("name")
		f, _, err := r.FormFile("image")
		if assert.NoError(t, err) {
			b, _ := io.ReadAll(f)
			file = string(b)
		}
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL}, nil)

	_, err := c.Upload(context.Background(), http.MethodPost, "/book", Form{
		Fields: map[string]string{"name": "Dế Mèn"},
		Files:  []FormFile{{Field: "image", Filename: "cover.png", Content: strings.NewReader("png-bytes")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dế Mèn", name)
	assert.Equal(t, "png-bytes", file)
}

func TestClient_Metrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/cart/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewMetrics(prometheus.NewRegistry())
	c := New(Config{BaseURL: server.URL}, nil, WithMetrics(m))

	_, _ = c.Get(context.Background(), "/cart", nil)
	_, _ = c.Delete(context.Background(), "/cart/c1")
	_, _ = c.Delete(context.Background(), "/cart/c2")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("GET", "/cart", "200")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues("DELETE", "/cart/{id}", "404")))
}

func TestRouteOf(t *testing.T) {
	cases := map[string]string{
		"/cart":                   "/cart",
		"/cart/abc":               "/cart/{id}",
		"/cart/pay":               "/cart/pay",
		"/order/get-by-id/42":     "/order/get-by-id/{id}",
		"/book/pagination?page=2": "/book/pagination",
	}
	for in, want := range cases {
		assert.Equal(t, want, routeOf(in), in)
	}
}
