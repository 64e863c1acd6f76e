package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	stripewebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v84"
)

const testSecret = "whsec_test"

type fakeSigningClient struct {
	secret string
}

func (c *fakeSigningClient) SigningSecret() string {
	return c.secret
}

type recordingPayer struct {
	calls []uint
	err   error
}

func (p *recordingPayer) MarkPaid(_ context.Context, id uint, source enums.PaidSource) (bool, error) {
	if source != enums.PaidSourceWebhook {
		return false, fmt.Errorf("unexpected source %s", source)
	}
	p.calls = append(p.calls, id)
	return p.err == nil, p.err
}

func newGuard(t *testing.T) *stripewebhook.IdempotencyGuard {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	guard, err := stripewebhook.NewIdempotencyGuard(pkgredis.NewFromClient(raw), time.Minute, "stripe-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	return guard
}

func newHandler(t *testing.T, payer *recordingPayer) http.HandlerFunc {
	t.Helper()
	svc, err := stripewebhook.NewService(payer, nil)
	if err != nil {
		t.Fatalf("service setup: %v", err)
	}
	return StripeWebhook(svc, &fakeSigningClient{secret: testSecret}, newGuard(t), nil)
}

func buildSessionEvent(t *testing.T, orderRef string) []byte {
	t.Helper()
	event := map[string]any{
		"id":          "evt_" + uuid.NewString(),
		"object":      "event",
		"type":        string(stripe.EventTypeCheckoutSessionCompleted),
		"api_version": stripe.APIVersion,
		"data": map[string]any{
			"object": map[string]any{
				"id":                  "cs_test_" + uuid.NewString(),
				"object":              "checkout.session",
				"payment_status":      "paid",
				"client_reference_id": orderRef,
			},
		},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload
}

func buildStripeSignatureHeader(payload []byte, secret string, ts int64) string {
	signedPayload := fmt.Sprintf("%d.%s", ts, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func post(handler http.Handler, payload []byte, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	if header != "" {
		req.Header.Set("Stripe-Signature", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestStripeWebhook_MarksOrderPaidOnce(t *testing.T) {
	payer := &recordingPayer{}
	handler := newHandler(t, payer)
	payload := buildSessionEvent(t, "42")
	header := buildStripeSignatureHeader(payload, testSecret, time.Now().Unix())

	rec := post(handler, payload, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(payer.calls) != 1 || payer.calls[0] != 42 {
		t.Fatalf("expected order 42 marked paid, got %v", payer.calls)
	}

	rec = post(handler, payload, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d", rec.Code)
	}
	if len(payer.calls) != 1 {
		t.Fatalf("expected duplicate not processed, calls %v", payer.calls)
	}
}

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	payer := &recordingPayer{}
	handler := newHandler(t, payer)
	payload := buildSessionEvent(t, "42")

	rec := post(handler, payload, "t=1,v1=invalid")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid signature, got %d", rec.Code)
	}
	rec = post(handler, payload, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing signature, got %d", rec.Code)
	}
	if len(payer.calls) != 0 {
		t.Fatalf("service should not be invoked without a valid signature")
	}
}

func TestStripeWebhook_FailureReleasesEvent(t *testing.T) {
	payer := &recordingPayer{err: errors.New("db down")}
	handler := newHandler(t, payer)
	payload := buildSessionEvent(t, "7")
	header := buildStripeSignatureHeader(payload, testSecret, time.Now().Unix())

	rec := post(handler, payload, header)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	payer.err = nil
	rec = post(handler, payload, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d", rec.Code)
	}
	if len(payer.calls) != 2 {
		t.Fatalf("expected retry to reach the service, calls %v", payer.calls)
	}
}

func TestStripeWebhook_InvalidReferenceIsRejected(t *testing.T) {
	payer := &recordingPayer{}
	handler := newHandler(t, payer)
	payload := buildSessionEvent(t, "not-a-number")
	header := buildStripeSignatureHeader(payload, testSecret, time.Now().Unix())

	rec := post(handler, payload, header)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStripeWebhook_MissingSecret(t *testing.T) {
	svc, err := stripewebhook.NewService(&recordingPayer{}, nil)
	if err != nil {
		t.Fatalf("service setup: %v", err)
	}
	handler := StripeWebhook(svc, &fakeSigningClient{}, newGuard(t), nil)

	rec := post(handler, []byte(`{}`), "t=1,v1=abc")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
