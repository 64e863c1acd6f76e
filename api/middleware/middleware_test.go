package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	pkgauth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/session"
)

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (f *fakeRateStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func decodeErrorCode(t *testing.T, body []byte) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return payload.Error.Code
}

func TestLoginRateLimit_PreservesBody(t *testing.T) {
	policy := NewLoginRateLimitPolicy("admin_login", time.Minute, 2, 2)
	handler := LoginRateLimit(policy, newFakeRateStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if !strings.Contains(string(body), `"username":"admin"`) {
			t.Fatalf("unexpected body: %s", body)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/v1/auth/login", strings.NewReader(`{"username":"admin","password":"x"}`))
	req.RemoteAddr = "1.2.3.4:5678"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLoginRateLimit_UsernameLimitTriggers(t *testing.T) {
	policy := NewLoginRateLimitPolicy("admin_login", time.Minute, 0, 2)
	handler := LoginRateLimit(policy, newFakeRateStore(), nil)(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/admin/v1/auth/login", strings.NewReader(`{"username":"Admin","password":"x"}`))
		req.RemoteAddr = fmt.Sprintf("10.0.0.%d:1", i+1)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i < 2 && rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i, rec.Code)
		}
		if i == 2 {
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %d", rec.Code)
			}
			if code := decodeErrorCode(t, rec.Body.Bytes()); code != string(pkgerrors.CodeRateLimit) {
				t.Fatalf("unexpected code %s", code)
			}
		}
	}
}

func TestLoginRateLimit_IPLimitUsesForwardedFor(t *testing.T) {
	policy := NewLoginRateLimitPolicy("admin_login", time.Minute, 1, 0)
	handler := LoginRateLimit(policy, newFakeRateStore(), nil)(okHandler())

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/admin/v1/auth/login", strings.NewReader(`{}`))
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := send("9.9.9.9, 10.0.0.1"); code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", code)
	}
	if code := send("9.9.9.9"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request from same client blocked, got %d", code)
	}
	if code := send("8.8.8.8"); code != http.StatusOK {
		t.Fatalf("expected other client allowed, got %d", code)
	}
}

func TestLoginRateLimit_DisabledPolicyPassesThrough(t *testing.T) {
	policy := NewLoginRateLimitPolicy("admin_login", 0, 1, 1)
	handler := LoginRateLimit(policy, newFakeRateStore(), nil)(okHandler())
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"a"}`)))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected pass-through, got %d", rec.Code)
		}
	}
}

func TestAdminAuth(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 5}
	token, _, err := pkgauth.MintAdminToken(cfg, time.Now(), 3, "root")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	var gotID uint
	var gotName string
	handler := AdminAuth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = AdminIDFromContext(r.Context())
		gotName = AdminUsernameFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/items", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || gotID != 3 || gotName != "root" {
		t.Fatalf("unexpected result status=%d id=%d name=%q", rec.Code, gotID, gotName)
	}

	for _, header := range []string{"", "Bearer ", "Bearer not-a-token"} {
		req := httptest.NewRequest(http.MethodGet, "/admin/v1/items", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestSessionMiddlewareIssuesAndReusesCookie(t *testing.T) {
	cookies := session.Cookies{Name: "sf_session", TTL: time.Hour}
	var seen string
	handler := Session(cookies, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = session.IDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart/", nil))
	issued := rec.Result().Cookies()
	if len(issued) != 1 || issued[0].Value != seen || !issued[0].HttpOnly {
		t.Fatalf("expected http-only session cookie matching context, got %+v (ctx %q)", issued, seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/cart/", nil)
	req.AddCookie(issued[0])
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	reissued := rec.Result().Cookies()
	if len(reissued) != 1 || reissued[0].Value != issued[0].Value {
		t.Fatalf("expected existing cookie to be reused and refreshed, got %+v", reissued)
	}
	if seen != issued[0].Value {
		t.Fatalf("expected session %q, got %q", issued[0].Value, seen)
	}
}

type recordedObservation struct {
	method, route string
	status        int
}

type fakeObserver struct {
	got []recordedObservation
}

func (f *fakeObserver) Observe(method, route string, status int, _ time.Duration) {
	f.got = append(f.got, recordedObservation{method, route, status})
}

func TestLoggingObservesRoutePattern(t *testing.T) {
	observer := &fakeObserver{}
	r := chi.NewRouter()
	r.Use(Logging(nil, observer))
	r.Get("/items/{id}/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/5/", nil))

	if len(observer.got) != 1 {
		t.Fatalf("expected one observation, got %d", len(observer.got))
	}
	if got := observer.got[0]; got.route != "/items/{id}/" || got.status != http.StatusTeapot || got.method != http.MethodGet {
		t.Fatalf("unexpected observation %+v", got)
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec.Body.Bytes()); code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", code)
	}
}
