package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/waste3d/courseplatform-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	c := NewClient("sk_test_secret", "http://unused")
	body := []byte(`{"event":"charge.success"}`)
	sig := c.Sign(body)

	assert.True(t, c.VerifySignature(body, sig))
	assert.False(t, c.VerifySignature(body, ""))
	assert.False(t, c.VerifySignature(body, "zz"))
	assert.False(t, c.VerifySignature([]byte(`{"event":"charge.failed"}`), sig))
	assert.False(t, NewClient("other", "").VerifySignature(body, sig))
	assert.False(t, NewClient("", "").VerifySignature(body, sig))
}

func TestInitialize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk", r.Header.Get("Authorization"))
		var in InitializeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.EqualValues(t, 500000, in.Amount)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]string{
				"authorization_url": "https://checkout.paystack.com/abc",
				"access_code":       "abc",
				"reference":         in.Reference,
			},
		})
	}))
	defer srv.Close()

	auth, err := NewClient("sk", srv.URL+"/").Initialize(context.Background(), InitializeRequest{
		Email: "a@example.com", Amount: 500000, Reference: "ref-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", auth.AuthorizationURL)
	assert.Equal(t, "ref-1", auth.Reference)
}

func TestVerifyReportsProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	}))
	defer srv.Close()

	_, err := NewClient("sk", srv.URL).Verify(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrPaymentProvider)
	assert.Contains(t, err.Error(), "reference not found")
}

func TestVerifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/ref-9", r.URL.Path)
		w.Write([]byte(`{"status":true,"message":"ok","data":{"id":77,"status":"success","reference":"ref-9","channel":"card","customer":{"email":"a@example.com"}}}`))
	}))
	defer srv.Close()

	tx, err := NewClient("sk", srv.URL).Verify(context.Background(), "ref-9")
	require.NoError(t, err)
	assert.EqualValues(t, 77, tx.ID)
	assert.Equal(t, "success", tx.Status)
	assert.Equal(t, "a@example.com", tx.Customer.Email)
}

func TestDisabledClient(t *testing.T) {
	_, err := NewClient("", "http://x").Verify(context.Background(), "r")
	assert.ErrorIs(t, err, domain.ErrProviderDisabled)
}
