package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendResetEmailPostsToSendGrid(t *testing.T) {
	var got sgRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewEmailSender("sg-key", "noreply@example.com", "http://front").WithEndpoint(srv.URL)
	require.NoError(t, s.SendResetEmail(context.Background(), "ada@example.com", "tok123"))

	assert.Equal(t, "Bearer sg-key", auth)
	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "ada@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "noreply@example.com", got.From.Email)
	require.Len(t, got.Content, 1)
	assert.True(t, strings.Contains(got.Content[0].Value, "http://front/reset-password?token=tok123"))
}

func TestSendReportsProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewEmailSender("sg-key", "noreply@example.com", "http://front").WithEndpoint(srv.URL)
	err := s.SendVerificationEmail(context.Background(), "ada@example.com", "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}

func TestSendWithoutKeyOnlyLogs(t *testing.T) {
	s := NewEmailSender("", "noreply@example.com", "http://front").WithEndpoint("http://127.0.0.1:1")
	assert.NoError(t, s.SendVerificationEmail(context.Background(), "ada@example.com", "tok"))
}
