package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMailer_Send(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	defer srv.Close()

	m := NewHTTPMailer("re_key", srv.URL, "Noscite <noreply@noscite.it>")
	err := m.Send(context.Background(), Email{
		To:      []string{"info@noscite.it"},
		ReplyTo: "mario@example.it",
		Subject: "Nuovo contatto",
		Text:    "ciao",
	})
	require.NoError(t, err)

	assert.Equal(t, "Noscite <noreply@noscite.it>", got.From)
	assert.Equal(t, []string{"info@noscite.it"}, got.To)
	assert.Equal(t, "mario@example.it", got.ReplyTo)
}

func TestHTTPMailer_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	err := NewHTTPMailer("k", srv.URL, "a@b.it").Send(context.Background(), Email{To: []string{"x@y.it"}})
	assert.Error(t, err)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(zerolog.New(&buf))

	require.NoError(t, m.Send(context.Background(), Email{To: []string{"info@noscite.it"}, Subject: "Nuovo contatto"}))
	assert.Contains(t, buf.String(), "Nuovo contatto")
}
