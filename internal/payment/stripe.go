package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const signatureHeader = "X-Pustaka-Signature"

// Stripe implements Provider for a Stripe-style payment intent integration.
// Webhook authenticity follows the signed-timestamp scheme: the signature
// header carries "t=<unix>,v1=<hex hmac>" where the HMAC-SHA256 input is
// "<unix>.<raw body>" keyed with the endpoint signing secret.
type Stripe struct {
	SigningSecret string
	BaseURL       string
	Sandbox       bool

	// Tolerance bounds how stale a signed timestamp may be. Zero means
	// the default of five minutes.
	Tolerance time.Duration

	// Now is injectable for tests.
	Now func() time.Time
}

func (s Stripe) Name() string { return "stripe" }

// CreateIntent synthesises a deterministic intent without a network call.
// The real integration would call the provider API; the deterministic token
// keeps the rest of the flow testable end to end.
func (s Stripe) CreateIntent(_ context.Context, req IntentRequest) (IntentResponse, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return IntentResponse{}, errors.New("order id is required")
	}
	if req.AmountMinor <= 0 {
		return IntentResponse{}, errors.New("amount must be positive")
	}
	ref := fmt.Sprintf("pi_%s", strings.ReplaceAll(req.OrderID, "-", ""))
	return IntentResponse{
		Provider:    s.Name(),
		ProviderRef: ref,
		ClientToken: fmt.Sprintf("%s_secret_%s", ref, req.OrderNumber),
		RedirectURL: fmt.Sprintf("%s/pay/%s", strings.TrimRight(s.host(), "/"), ref),
		ExpiresAt:   s.now().Add(24 * time.Hour).Unix(),
	}, nil
}

func (s Stripe) host() string {
	host := strings.TrimSpace(s.BaseURL)
	if host == "" {
		if s.Sandbox {
			return "https://checkout.sandbox.stripe.com"
		}
		return "https://checkout.stripe.com"
	}
	return host
}

func (s Stripe) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s Stripe) tolerance() time.Duration {
	if s.Tolerance > 0 {
		return s.Tolerance
	}
	return 5 * time.Minute
}

// VerifyWebhook checks the signature header against the raw body and
// normalises the event payload into a WebhookResult.
func (s Stripe) VerifyWebhook(r *http.Request, body []byte) (WebhookResult, error) {
	ts, provided, err := parseSignatureHeader(r.Header.Get(signatureHeader))
	if err != nil {
		return WebhookResult{}, err
	}

	age := s.now().Sub(time.Unix(ts, 0))
	if age > s.tolerance() || age < -s.tolerance() {
		return WebhookResult{}, errors.New("signature timestamp outside tolerance")
	}

	expected := s.computeSignature(ts, body)
	if expected == "" || !hmac.Equal([]byte(expected), []byte(provided)) {
		return WebhookResult{}, errors.New("invalid signature")
	}

	var payload struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID          string `json:"id"`
				OrderID     string `json:"order_id"`
				AmountMinor int64  `json:"amount"`
				Status      string `json:"status"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookResult{}, fmt.Errorf("decode webhook payload: %w", err)
	}
	if payload.ID == "" {
		return WebhookResult{}, errors.New("missing event id")
	}
	if payload.Data.Object.OrderID == "" {
		return WebhookResult{}, errors.New("missing order id")
	}

	return WebhookResult{
		EventID:     payload.ID,
		ProviderRef: payload.Data.Object.ID,
		OrderID:     payload.Data.Object.OrderID,
		Status:      normalizeStatus(payload.Type, payload.Data.Object.Status),
		AmountMinor: payload.Data.Object.AmountMinor,
		Payload:     body,
	}, nil
}

// SignBody produces the signature header value for a body, used by tests
// and by the sandbox notifier.
func (s Stripe) SignBody(ts int64, body []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", ts, s.computeSignature(ts, body))
}

func (s Stripe) computeSignature(ts int64, body []byte) string {
	secret := strings.TrimSpace(s.SigningSecret)
	if secret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (ts int64, sig string, err error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, "", errors.New("missing signature header")
	}
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("bad signature timestamp: %w", err)
			}
		case "v1":
			sig = v
		}
	}
	if ts == 0 || sig == "" {
		return 0, "", errors.New("malformed signature header")
	}
	return ts, sig, nil
}

func normalizeStatus(eventType, objectStatus string) string {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "payment_intent.succeeded":
		return StatusPaid
	case "payment_intent.payment_failed":
		return StatusFailed
	case "payment_intent.canceled":
		return StatusExpired
	case "charge.refunded":
		return StatusRefunded
	}
	switch strings.ToLower(strings.TrimSpace(objectStatus)) {
	case "succeeded", "paid":
		return StatusPaid
	case "failed":
		return StatusFailed
	case "canceled", "expired":
		return StatusExpired
	case "refunded":
		return StatusRefunded
	default:
		return StatusPending
	}
}
