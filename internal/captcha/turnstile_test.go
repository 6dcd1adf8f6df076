package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSiteverify(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret-key", r.PostForm.Get("secret"))
		assert.Equal(t, "203.0.113.7", r.PostForm.Get("remoteip"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifier_Success(t *testing.T) {
	srv := newSiteverify(t, http.StatusOK, `{"success":true}`)
	ok, err := NewVerifier("secret-key", srv.URL).Verify(context.Background(), "tok", "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifier_Rejected(t *testing.T) {
	srv := newSiteverify(t, http.StatusOK, `{"success":false,"error-codes":["invalid-input-response"]}`)
	ok, err := NewVerifier("secret-key", srv.URL).Verify(context.Background(), "tok", "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifier_ProviderError(t *testing.T) {
	srv := newSiteverify(t, http.StatusBadGateway, `oops`)
	_, err := NewVerifier("secret-key", srv.URL).Verify(context.Background(), "tok", "203.0.113.7")
	assert.Error(t, err)
}

func TestVerifier_NotConfigured(t *testing.T) {
	_, err := NewVerifier("", "").Verify(context.Background(), "tok", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerifier_EmptyToken(t *testing.T) {
	ok, err := NewVerifier("secret-key", "http://127.0.0.1:1").Verify(context.Background(), "  ", "")
	require.NoError(t, err)
	assert.False(t, ok)
}
