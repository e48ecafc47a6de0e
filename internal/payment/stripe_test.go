package payment_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pustaka/internal/payment"
)

func webhookBody(eventType, status string) []byte {
	return []byte(`{
		"id": "evt_123",
		"type": "` + eventType + `",
		"data": {"object": {
			"id": "pi_abc",
			"order_id": "8f14e45f-ea11-4b6e-9c53-1c0e65b1a001",
			"amount": 2350,
			"status": "` + status + `"
		}}
	}`)
}

func TestVerifyWebhookRoundTrip(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	p := payment.Stripe{
		SigningSecret: "whsec_test",
		Now:           func() time.Time { return now },
	}
	body := webhookBody("payment_intent.succeeded", "succeeded")

	r := httptest.NewRequest("POST", "/webhooks/payments/stripe", bytes.NewReader(body))
	r.Header.Set("X-Pustaka-Signature", p.SignBody(now.Unix(), body))

	result, err := p.VerifyWebhook(r, body)
	require.NoError(t, err)
	require.Equal(t, "evt_123", result.EventID)
	require.Equal(t, "pi_abc", result.ProviderRef)
	require.Equal(t, "8f14e45f-ea11-4b6e-9c53-1c0e65b1a001", result.OrderID)
	require.Equal(t, payment.StatusPaid, result.Status)
	require.Equal(t, int64(2350), result.AmountMinor)
}

func TestVerifyWebhookRejectsTamperedBody(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	p := payment.Stripe{
		SigningSecret: "whsec_test",
		Now:           func() time.Time { return now },
	}
	body := webhookBody("payment_intent.succeeded", "succeeded")
	sig := p.SignBody(now.Unix(), body)

	tampered := bytes.Replace(body, []byte(`"amount": 2350`), []byte(`"amount": 1`), 1)
	r := httptest.NewRequest("POST", "/webhooks/payments/stripe", bytes.NewReader(tampered))
	r.Header.Set("X-Pustaka-Signature", sig)

	_, err := p.VerifyWebhook(r, tampered)
	require.ErrorContains(t, err, "invalid signature")
}

func TestVerifyWebhookRejectsStaleTimestamp(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	p := payment.Stripe{
		SigningSecret: "whsec_test",
		Now:           func() time.Time { return now },
	}
	body := webhookBody("payment_intent.succeeded", "succeeded")
	stale := now.Add(-10 * time.Minute).Unix()

	r := httptest.NewRequest("POST", "/webhooks/payments/stripe", bytes.NewReader(body))
	r.Header.Set("X-Pustaka-Signature", p.SignBody(stale, body))

	_, err := p.VerifyWebhook(r, body)
	require.ErrorContains(t, err, "tolerance")
}

func TestVerifyWebhookRejectsMissingHeader(t *testing.T) {
	p := payment.Stripe{SigningSecret: "whsec_test"}
	body := webhookBody("payment_intent.succeeded", "succeeded")

	r := httptest.NewRequest("POST", "/webhooks/payments/stripe", bytes.NewReader(body))

	_, err := p.VerifyWebhook(r, body)
	require.ErrorContains(t, err, "missing signature header")
}

func TestVerifyWebhookStatusMapping(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	p := payment.Stripe{
		SigningSecret: "whsec_test",
		Now:           func() time.Time { return now },
	}
	cases := []struct {
		eventType string
		status    string
		want      string
	}{
		{"payment_intent.succeeded", "succeeded", payment.StatusPaid},
		{"payment_intent.payment_failed", "failed", payment.StatusFailed},
		{"payment_intent.canceled", "canceled", payment.StatusExpired},
		{"charge.refunded", "refunded", payment.StatusRefunded},
		{"payment_intent.created", "requires_payment_method", payment.StatusPending},
	}
	for _, tc := range cases {
		body := webhookBody(tc.eventType, tc.status)
		r := httptest.NewRequest("POST", "/webhooks/payments/stripe", bytes.NewReader(body))
		r.Header.Set("X-Pustaka-Signature", p.SignBody(now.Unix(), body))

		result, err := p.VerifyWebhook(r, body)
		require.NoError(t, err, tc.eventType)
		require.Equal(t, tc.want, result.Status, tc.eventType)
	}
}

func TestCreateIntentDeterministicRef(t *testing.T) {
	p := payment.Stripe{SigningSecret: "whsec_test", Sandbox: true}
	resp, err := p.CreateIntent(context.Background(), payment.IntentRequest{
		OrderID:     "8f14e45f-ea11-4b6e-9c53-1c0e65b1a001",
		OrderNumber: "PU-20260601-abcd1234",
		AmountMinor: 2350,
		Currency:    "USD",
	})
	require.NoError(t, err)
	require.Equal(t, "stripe", resp.Provider)
	require.Equal(t, "pi_8f14e45fea114b6e9c531c0e65b1a001", resp.ProviderRef)
	require.Contains(t, resp.RedirectURL, "sandbox")
}

func TestCreateIntentValidatesInput(t *testing.T) {
	p := payment.Stripe{SigningSecret: "whsec_test"}
	_, err := p.CreateIntent(context.Background(), payment.IntentRequest{AmountMinor: 100})
	require.Error(t, err)
	_, err = p.CreateIntent(context.Background(), payment.IntentRequest{OrderID: "x", AmountMinor: 0})
	require.Error(t, err)
}
