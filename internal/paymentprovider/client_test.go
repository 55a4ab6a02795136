package paymentprovider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_test"

func signBody(t *testing.T, body []byte) string {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	_, err := mac.Write([]byte(timestamp + "." + string(body)))
	require.NoError(t, err)
	return "t=" + timestamp + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestClient_VerifyWebhook(t *testing.T) {
	client := NewClient("sk_test", webhookSecret)
	body := []byte(`{
		"id": "evt_1",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_1", "status": "succeeded", "metadata": {"subscription_id": "42"}}}
	}`)

	t.Run("корректная подпись принимается", func(t *testing.T) {
		event, err := client.VerifyWebhook(body, signBody(t, body))
		require.NoError(t, err)
		assert.Equal(t, EventPaymentSucceeded, event.Type)
		assert.Equal(t, "pi_1", event.Data.Object.ID)
		assert.Equal(t, "42", event.Data.Object.Metadata["subscription_id"])
	})

	t.Run("подпись чужим ключом отклоняется", func(t *testing.T) {
		other := NewClient("sk_test", "whsec_other")
		_, err := other.VerifyWebhook(body, signBody(t, body))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("подпись от другого тела отклоняется", func(t *testing.T) {
		_, err := client.VerifyWebhook([]byte(`{"tampered":true}`), signBody(t, body))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("заголовок без подписи отклоняется", func(t *testing.T) {
		_, err := client.VerifyWebhook(body, "t=123")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}

func TestClient_GetPaymentIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/payment_intents/pi_1", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "pi_1", "amount": 999, "currency": "usd", "status": "succeeded"}`))
	}))
	defer srv.Close()

	client := NewClient("sk_test", webhookSecret)
	client.apiURL = srv.URL

	intent, err := client.GetPaymentIntent(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, int64(999), intent.Amount)
	assert.Equal(t, IntentStatusSucceeded, intent.Status)
}

func TestClient_GetPaymentIntent_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient("sk_test", webhookSecret)
	client.apiURL = srv.URL

	_, err := client.GetPaymentIntent(context.Background(), "pi_missing")
	assert.Error(t, err)
}
