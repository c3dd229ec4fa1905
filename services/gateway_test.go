package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) GatewayConfig {
	return GatewayConfig{
		BaseURL:  url,
		Sender:   "TestBiz",
		Username: "api-user",
		Password: "api-pass",
	}
}

func TestGatewayAuthenticate(t *testing.T) {
	type gotReq struct {
		Method      string
		Path        string
		ContentType string
		Body        loginRequest
	}
	var captured gotReq

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.ContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&captured.Body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"abc-123"}`))
	}))
	defer srv.Close()

	c := NewGatewayClient(testConfig(srv.URL))

	token, err := c.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc-123", token)

	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "/api/v1/login", captured.Path)
	assert.Equal(t, "application/json", captured.ContentType)
	assert.Equal(t, "api-user", captured.Body.Username)
	assert.Equal(t, "api-pass", captured.Body.Password)
}

func TestGatewayAuthenticateRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad credentials"}`))
	}))
	defer srv.Close()

	c := NewGatewayClient(testConfig(srv.URL))

	_, err := c.Authenticate(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Error(), "401")
}

func TestGatewayAuthenticateMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewGatewayClient(testConfig(srv.URL))

	_, err := c.Authenticate(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Error(), "missing token")
}

func TestGatewayAuthenticateUnexpectedField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"abc","shadow":"field"}`))
	}))
	defer srv.Close()

	c := NewGatewayClient(testConfig(srv.URL))

	_, err := c.Authenticate(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Error(), "failed to decode json")
}

func TestGatewayAuthenticateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewGatewayClient(testConfig(srv.URL))

	_, err := c.Authenticate(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Error(), "unreachable")
}

func TestGatewaySendDelivered(t *testing.T) {
	type gotReq struct {
		Path   string
		Bearer string
		Body   smsRequest
	}
	var captured gotReq

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Path = r.URL.Path
		captured.Bearer = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&captured.Body)

		_, _ = w.Write([]byte(`{"result":"OK"}`))
	}))
	defer srv.Close()

	c := NewGatewayClient(testConfig(srv.URL))

	result, err := c.Send(context.Background(), "tok-1", "48123456789", "See you tomorrow")
	require.NoError(t, err)
	assert.Equal(t, Delivered, result)

	assert.Equal(t, "/api/v1/sms", captured.Path)
	assert.Equal(t, "Bearer tok-1", captured.Bearer)
	assert.Equal(t, "TestBiz", captured.Body.From)
	assert.Equal(t, "48123456789", captured.Body.To)
	assert.Equal(t, "See you tomorrow", captured.Body.Text)
}

func TestGatewaySendTokenRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"error"}`))
	}))
	defer srv.Close()

	c := NewGatewayClient(testConfig(srv.URL))

	result, err := c.Send(context.Background(), "stale", "48123456789", "hi")
	require.NoError(t, err)
	assert.Equal(t, TokenRejected, result)
}

func TestGatewaySendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewGatewayClient(testConfig(srv.URL))

	result, err := c.Send(context.Background(), "tok", "48123456789", "hi")
	assert.Equal(t, TransportError, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 500")
}

func TestGatewaySendInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("THIS IS NOT JSON"))
	}))
	defer srv.Close()

	c := NewGatewayClient(testConfig(srv.URL))

	result, err := c.Send(context.Background(), "tok", "48123456789", "hi")
	assert.Equal(t, TransportError, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode json")
}

func TestGatewaySendUnexpectedResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"maybe"}`))
	}))
	defer srv.Close()

	c := NewGatewayClient(testConfig(srv.URL))

	result, err := c.Send(context.Background(), "tok", "48123456789", "hi")
	assert.Equal(t, TransportError, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unexpected result "maybe"`)
}
